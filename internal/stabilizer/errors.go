package stabilizer

import "github.com/pkg/errors"

var (
	// ErrConfiguration marks a malformed code definition. It is only ever
	// returned while a code is being constructed.
	ErrConfiguration = errors.New("stabilizer: invalid code configuration")
	// ErrUnsupportedCode is returned by Lookup for unknown code names.
	ErrUnsupportedCode = errors.New("stabilizer: unsupported code")
	// ErrInvalidStabilizer marks a check row with no participating qubit.
	ErrInvalidStabilizer = errors.New("stabilizer: invalid stabilizer row")
	// ErrSyndromeTableGap marks a syndrome value with no correction target.
	ErrSyndromeTableGap = errors.New("stabilizer: syndrome table gap")
)
