// Package fsserr defines the sentinel error kinds shared across the FSS
// core, so callers can distinguish them with errors.Is instead of string
// matching.
package fsserr

import "errors"

// ErrEmptyStore is returned when a primitive queue is drained mid-operation.
// The caller must not treat this as a partial success: mask build only
// peeks, so the queue is left unchanged and a refill-and-retry is safe.
var ErrEmptyStore = errors.New("fss: primitive store is empty")

// ErrShapeMismatch is returned when eq/le operands disagree in shape or
// modulus. Checked before any queue access.
var ErrShapeMismatch = errors.New("fss: operand shape or modulus mismatch")

// ErrParamMismatch is returned when a key is evaluated by a DPF/DIF
// configured for a different n (its correction-word count does not
// match). Deserializing a batch does not compare its (lambda, n) header
// against any configured parameters and does not return this error.
var ErrParamMismatch = errors.New("fss: key parameters do not match configured (lambda, n)")

// ErrPRGWidthExceeded is a configuration error: the requested PRG output
// width exceeds what the underlying hash can safely provide.
var ErrPRGWidthExceeded = errors.New("fss: requested PRG output width exceeds hash capacity")
