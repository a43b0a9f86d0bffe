package verification

import "errors"

// Validation-kind errors surfaced to StartVerification/GetStatus callers
// per the engine's error taxonomy. These never mutate engine state.
var (
	ErrNotFound         = errors.New("transaction not found")
	ErrInvalidState     = errors.New("transaction is not in a state eligible for verification")
	ErrCurrencyMismatch = errors.New("payload currency does not match the stored transaction")
	ErrAmountMismatch   = errors.New("payload amount does not match the stored transaction")
)
