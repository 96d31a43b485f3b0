package bridge

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned by operations the platform does not
// expose (channel listing, explicit disconnect).
var ErrNotSupported = errors.New("not supported")

// ErrCredentialsMissing is returned by Connect when the credential pair
// is absent. The connect attempt fails; there is no automatic retry.
var ErrCredentialsMissing = errors.New("credentials should exist")

// AddressNotFoundError reports a cache miss in Addresses.
type AddressNotFoundError struct {
	ID string
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("address %s not found", e.ID)
}
