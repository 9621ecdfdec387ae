// Package identity provides the device identity: the link-layer address the
// peripheral uses on air and the name it advertises. An identity is fixed for
// the lifetime of the process.
package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net"

	"golang.org/x/crypto/hkdf"
)

// Address is a 48-bit device address, most significant byte first.
type Address [6]byte

// ParseAddress parses a colon-separated address such as "ff:8f:1a:05:e4:ff".
func ParseAddress(s string) (Address, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return Address{}, fmt.Errorf("identity: parse address %q: %w", s, err)
	}
	if len(hw) != 6 {
		return Address{}, fmt.Errorf("identity: address %q is %d bytes, want 6", s, len(hw))
	}
	var a Address
	copy(a[:], hw)
	return a, nil
}

func (a Address) String() string { return net.HardwareAddr(a[:]).String() }

// IsStaticRandom reports whether a is a valid static random address: the two
// most significant bits are set and the remaining bits are neither all zero
// nor all one.
func (a Address) IsStaticRandom() bool {
	if a[0]&0xc0 != 0xc0 {
		return false
	}
	zeros, ones := a[0]&0x3f == 0, a[0]&0x3f == 0x3f
	for _, b := range a[1:] {
		zeros = zeros && b == 0
		ones = ones && b == 0xff
	}
	return !zeros && !ones
}

// Identity is the name and address of the peripheral.
type Identity struct {
	Name    string
	Address Address
}

func (id Identity) String() string { return fmt.Sprintf("%s (%s)", id.Name, id.Address) }

// New returns an identity with a fixed static random address.
func New(name string, addr Address) (Identity, error) {
	if name == "" {
		return Identity{}, errors.New("identity: name must not be empty")
	}
	if !addr.IsStaticRandom() {
		return Identity{}, fmt.Errorf("identity: %s is not a static random address", addr)
	}
	return Identity{Name: name, Address: addr}, nil
}

// Derive returns an identity whose address is derived from seed with
// HKDF-SHA256, so a fleet can provision per-device addresses from a secret
// without storing them.
func Derive(name string, seed []byte) (Identity, error) {
	if len(seed) == 0 {
		return Identity{}, errors.New("identity: empty address seed")
	}
	r := hkdf.New(sha256.New, seed, nil, []byte("iot-peripheral static address"))
	for i := 0; i < 8; i++ {
		var a Address
		if _, err := io.ReadFull(r, a[:]); err != nil {
			return Identity{}, fmt.Errorf("identity: HKDF: %w", err)
		}
		a[0] |= 0xc0
		if a.IsStaticRandom() {
			return New(name, a)
		}
	}
	return Identity{}, errors.New("identity: seed does not yield a usable address")
}
