package bits

import "errors"

var (
	errInvalidLambda = errors.New("bits: lambda must be in [64, 256]")
	errInvalidN      = errors.New("bits: n must be in [2, 64]")
)
