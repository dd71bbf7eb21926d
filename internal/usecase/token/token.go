// Package token issues and verifies the signed QR payload a borrower shares
// with prospective guarantors, and the per-guarantor confirmation signatures.
package token

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/loan"
)

const Version = 1

// Payload is signed as its canonical JSON encoding (struct field order).
type Payload struct {
	LoanID             string          `json:"loanId"`
	BorrowerID         string          `json:"borrowerId"`
	BorrowerName       string          `json:"borrowerName"`
	Amount             decimal.Decimal `json:"amount"`
	Tenor              int             `json:"tenor"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	Purpose            string          `json:"purpose"`
	GuarantorsRequired int             `json:"guarantorsRequired"`
	ExpiresAt          time.Time       `json:"expiresAt"`
	Version            int             `json:"version"`
}

// wire is the QR body: the payload fields plus the signature.
type wire struct {
	Payload
	Signature string `json:"signature"`
}

type Issued struct {
	Payload   Payload   `json:"payload"`
	Raw       string    `json:"raw"`
	Signature string    `json:"signature"`
	ExpiresAt time.Time `json:"expires_at"`
	QR        string    `json:"qr"`
}

type Service struct {
	secret        []byte
	ttl           time.Duration
	confirmMaxAge time.Duration
	now           func() time.Time
}

// NewService panics on an empty secret: every token would be forgeable.
func NewService(secret string, ttl, confirmMaxAge time.Duration, now func() time.Time) *Service {
	if secret == "" {
		panic("token: empty signing secret")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{secret: []byte(secret), ttl: ttl, confirmMaxAge: confirmMaxAge, now: now}
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) mac(parts ...[]byte) string {
	h := hmac.New(sha256.New, s.secret)
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonical(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Issue signs a fresh payload for l that expires after the configured TTL.
func (s *Service) Issue(l *loan.Loan, borrowerName string) (*Issued, error) {
	exp := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	p := Payload{
		LoanID:             l.LoanID,
		BorrowerID:         l.BorrowerID,
		BorrowerName:       borrowerName,
		Amount:             l.Amount,
		Tenor:              l.TenorMonths,
		InterestRate:       l.InterestRate,
		Purpose:            l.Purpose,
		GuarantorsRequired: l.GuarantorsRequired,
		ExpiresAt:          exp,
		Version:            Version,
	}
	raw, err := canonical(p)
	if err != nil {
		return nil, fmt.Errorf("token: encode payload: %w", err)
	}
	sig := s.mac([]byte(raw))
	qr, err := json.Marshal(wire{Payload: p, Signature: sig})
	if err != nil {
		return nil, fmt.Errorf("token: encode qr: %w", err)
	}
	return &Issued{Payload: p, Raw: raw, Signature: sig, ExpiresAt: exp, QR: string(qr)}, nil
}

// Verify checks the signature over the raw payload bytes first, then the
// structure, then expiry.
func (s *Service) Verify(raw, signature string) (*Payload, error) {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) != sha256.Size {
		return nil, apperr.ErrInvalidSignature
	}
	want, _ := hex.DecodeString(s.mac([]byte(raw)))
	if !hmac.Equal(got, want) {
		return nil, apperr.ErrInvalidSignature
	}

	var p Payload
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, apperr.ErrMalformedToken
	}
	if p.Version != Version || p.LoanID == "" || p.ExpiresAt.IsZero() {
		return nil, apperr.ErrMalformedToken
	}
	if !s.now().Before(p.ExpiresAt) {
		return nil, apperr.ErrTokenExpired
	}
	return &p, nil
}

// ParseQR splits a scanned QR body into the canonical payload and its signature.
func (s *Service) ParseQR(qr string) (raw, signature string, err error) {
	var w wire
	dec := json.NewDecoder(bytes.NewReader([]byte(qr)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil || w.Signature == "" {
		return "", "", apperr.ErrMalformedToken
	}
	raw, err = canonical(w.Payload)
	if err != nil {
		return "", "", apperr.ErrMalformedToken
	}
	return raw, w.Signature, nil
}

// VerifyQR is ParseQR followed by Verify.
func (s *Service) VerifyQR(qr string) (*Payload, string, error) {
	raw, sig, err := s.ParseQR(qr)
	if err != nil {
		return nil, "", err
	}
	p, err := s.Verify(raw, sig)
	return p, sig, err
}

func confirmationParts(loanID, guarantorID string, position int, at time.Time) [][]byte {
	return [][]byte{
		[]byte(loanID), {'|'},
		[]byte(guarantorID), {'|'},
		[]byte(strconv.Itoa(position)), {'|'},
		[]byte(strconv.FormatInt(at.Unix(), 10)),
	}
}

// SignConfirmation binds a guarantor to a slot of a loan at a point in time.
func (s *Service) SignConfirmation(loanID, guarantorID string, position int, at time.Time) string {
	return s.mac(confirmationParts(loanID, guarantorID, position, at)...)
}

// CheckConfirmation validates a stored confirmation signature regardless of age.
func (s *Service) CheckConfirmation(loanID, guarantorID string, position int, at time.Time, signature string) error {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return apperr.ErrInvalidSignature
	}
	want, _ := hex.DecodeString(s.SignConfirmation(loanID, guarantorID, position, at))
	if !hmac.Equal(got, want) {
		return apperr.ErrInvalidSignature
	}
	return nil
}

// VerifyConfirmation is CheckConfirmation for a fresh handshake: signatures
// older than the configured max age are refused.
func (s *Service) VerifyConfirmation(loanID, guarantorID string, position int, at time.Time, signature string) error {
	if err := s.CheckConfirmation(loanID, guarantorID, position, at, signature); err != nil {
		return err
	}
	if s.confirmMaxAge > 0 && s.now().Sub(at) > s.confirmMaxAge {
		return apperr.ErrTokenExpired
	}
	return nil
}
