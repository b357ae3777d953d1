// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

const (
	CodeNothingTriggered = iota + 1
	CodePriceDataMismatch
	CodeInvalidProposal
	CodeSigningFailed
)

var (
	// ErrNothingTriggered is a refusal: the peer has no update due for the
	// proposed keys. It is a non-vote, not a value disagreement.
	ErrNothingTriggered = &Error{Code: CodeNothingTriggered, Message: "nothing triggered"}

	// ErrPriceDataMismatch means the proposed price data is inconsistent with
	// the proposed leaves.
	ErrPriceDataMismatch = &Error{Code: CodePriceDataMismatch, Message: "price data mismatch"}

	ErrInvalidProposal = &Error{Code: CodeInvalidProposal, Message: "invalid proposal"}
	ErrSigningFailed   = &Error{Code: CodeSigningFailed, Message: "signing failed"}
)

// Error is a protocol error a peer reports back in SignerResponse.Error.
type Error struct {
	Code    int32
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}
