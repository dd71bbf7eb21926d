package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindPrecondition      Kind = "precondition_failed"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindInvalidAmount     Kind = "invalid_amount"
	KindToken             Kind = "token"
	KindNotFound          Kind = "not_found"
	KindStorage           Kind = "storage"
	KindConflict          Kind = "concurrency_conflict"
)

// Error is the single error type crossing the usecase boundary.
// Two errors are considered the same (errors.Is) when their codes match,
// so a sentinel decorated with extra detail still matches the sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Preconditions
var (
	ErrKycRequired               = newErr(KindPrecondition, "kyc_required", "KYC verification required before applying for loans")
	ErrExistingLoan              = newErr(KindPrecondition, "existing_loan", "you already have an active or pending loan")
	ErrInsufficientContributions = newErr(KindPrecondition, "insufficient_contributions", "at least 3 completed contributions are required before applying")
	ErrSelfGuarantor             = newErr(KindPrecondition, "self_guarantor_forbidden", "you cannot guarantee your own loan")
	ErrAlreadyGuarantor          = newErr(KindPrecondition, "already_guarantor", "you have already guaranteed this loan")
	ErrExposureLimitReached      = newErr(KindPrecondition, "exposure_limit_reached", "guaranteeing this loan would exceed your guarantor limit")
	ErrGuarantorsIncomplete      = newErr(KindPrecondition, "guarantors_incomplete", "the loan does not have enough confirmed guarantors")
	ErrGuarantorSlotsFull        = newErr(KindPrecondition, "guarantor_slots_full", "this loan already has all the guarantors it needs")
	ErrFeatureDisabled           = newErr(KindPrecondition, "feature_disabled", "this feature is not available")
	ErrInvalidTransition         = newErr(KindPrecondition, "invalid_transition", "the loan is not in a state that allows this action")
	ErrWalletInactive            = newErr(KindPrecondition, "wallet_inactive", "the wallet is frozen or closed")
	ErrForbidden                 = newErr(KindPrecondition, "forbidden", "you are not allowed to act on this resource")
)

// Ledger
var (
	ErrInsufficientFunds = newErr(KindInsufficientFunds, "insufficient_funds", "insufficient wallet balance")
	ErrInvalidAmount     = newErr(KindInvalidAmount, "invalid_amount", "amount must be greater than zero")
)

// Tokens
var (
	ErrInvalidSignature = newErr(KindToken, "invalid_signature", "the QR code is not valid")
	ErrTokenExpired     = newErr(KindToken, "token_expired", "the QR code has expired, ask the borrower for a new one")
	ErrMalformedToken   = newErr(KindToken, "malformed_token", "the QR code could not be read")
)

var (
	ErrValidation = newErr(KindValidation, "validation_error", "invalid input")
	ErrNotFound   = newErr(KindNotFound, "not_found", "resource not found")
	ErrStorage    = newErr(KindStorage, "storage_error", "something went wrong, please try again")
	ErrConflict   = newErr(KindConflict, "concurrency_conflict", "the resource was modified concurrently")
)

// Validation returns a validation error carrying a user-facing message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: ErrValidation.Code, Message: msg}
}

// NotFound returns a not-found error naming the missing entity.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: ErrNotFound.Code, Message: entity + " not found"}
}

// Storage wraps an unexpected persistence failure.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Code: ErrStorage.Code, Message: ErrStorage.Message, Err: err}
}

// Conflict wraps a lock/serialization failure that is worth retrying.
func Conflict(err error) *Error {
	return &Error{Kind: KindConflict, Code: ErrConflict.Code, Message: ErrConflict.Message, Err: err}
}

// KindOf reports the kind of err, defaulting to storage for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Wrap makes sure err is an *Error, classifying anything else as storage.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Storage(err)
}
