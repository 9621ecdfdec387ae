//go:build !linux && !baremetal

package tinygo

import "errors"

// NewDefaultRadio is unavailable here: the host stack cannot act as a
// GATT server on this platform.
func NewDefaultRadio() (Radio, error) {
	return nil, errors.New("tinygo: peripheral mode is not supported on this platform; use the sim backend")
}
