package hxview

import (
	"errors"
	"fmt"

	"github.com/pthm/hxview/lib/encoding"
)

// Encodable is implemented by state types that encode themselves
// efficiently. Generated code implements this interface.
type Encodable = encoding.Encodable

// Decodable is implemented by state types that decode themselves
// efficiently. Generated code implements this interface.
type Decodable = encoding.Decodable

// wrapEncodingError maps encoding package errors onto hxview sentinels.
func wrapEncodingError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, encoding.ErrSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, encoding.ErrDecryptFailed):
		return fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	case errors.Is(err, encoding.ErrInvalidFormat):
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	default:
		return deserializeError("sealed state", err)
	}
}
