package loan

import "time"

// Details replaces a free-form metadata bag: one typed record per transition.
type Details struct {
	Guarantors         GuarantorProgress   `json:"guarantors"`
	Review             *ReviewDetails      `json:"review,omitempty"`
	Approval           *ApprovalDetails    `json:"approval,omitempty"`
	Rejection          *RejectionDetails   `json:"rejection,omitempty"`
	Rollover           *RolloverRequest    `json:"rollover,omitempty"`
	RolloverResolution *RolloverResolution `json:"rollover_resolution,omitempty"`
	Default            *DefaultDetails     `json:"default,omitempty"`
	Extra              map[string]string   `json:"extra,omitempty"`
}

type GuarantorProgress struct {
	Required        int        `json:"required"`
	Confirmed       int        `json:"confirmed"`
	LastConfirmedAt *time.Time `json:"last_confirmed_at,omitempty"`
}

type ReviewDetails struct {
	ReviewedBy string    `json:"reviewed_by"`
	StartedAt  time.Time `json:"started_at"`
}

type ApprovalDetails struct {
	ApprovedBy      string    `json:"approved_by"`
	ApprovedAt      time.Time `json:"approved_at"`
	DisbursementTx  string    `json:"disbursement_tx"`
	DisbursedWallet string    `json:"disbursed_wallet"`
}

type RejectionDetails struct {
	Reason     string    `json:"reason"`
	RejectedBy string    `json:"rejected_by"`
	RejectedAt time.Time `json:"rejected_at"`
}

type RolloverRequest struct {
	Reason      string    `json:"reason"`
	NewTenor    int       `json:"new_tenor,omitempty"`
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

type RolloverResolution struct {
	Approved   bool      `json:"approved"`
	ResolvedBy string    `json:"resolved_by"`
	ResolvedAt time.Time `json:"resolved_at"`
}

type DefaultDetails struct {
	Reason      string    `json:"reason"`
	MarkedBy    string    `json:"marked_by"`
	MarkedAt    time.Time `json:"marked_at"`
	Outstanding string    `json:"outstanding"`
}
