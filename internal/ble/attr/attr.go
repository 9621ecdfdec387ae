// Package attr holds the attribute table the peripheral exposes over GATT.
// Every declared characteristic is backed by exactly one Entry with a fixed
// handle, its access rights, and a lock-guarded current value.
package attr

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Handle is an ATT attribute handle. Valid handles start at 1.
type Handle uint16

// Perm is the set of access rights of a characteristic value.
// The bits match the GATT characteristic property flags; do not re-order.
type Perm uint8

const (
	PermRead    Perm = 1 << (iota + 1) // value may be read
	PermWriteNR                        // value may be written without response
	PermWrite                          // value may be written with response
	PermNotify                         // value may be pushed to the central
)

func (p Perm) String() string {
	s := ""
	for _, f := range []struct {
		bit  Perm
		name string
	}{{PermRead, "read"}, {PermWriteNR, "write-nr"}, {PermWrite, "write"}, {PermNotify, "notify"}} {
		if p&f.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += f.name
	}
	if s == "" {
		return "none"
	}
	return s
}

// Kind is the declared value type of an entry.
type Kind int

const (
	KindBytes Kind = iota // opaque bytes
	KindBool              // single byte, 0x00 or 0x01
	KindUTF8              // UTF-8 string
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindUTF8:
		return "utf8"
	default:
		return "bytes"
	}
}

// ErrMalformed is returned when a value does not match the declared kind.
var ErrMalformed = errors.New("attr: malformed value")

// Validate reports whether b is a well-formed encoding for kind k.
func (k Kind) Validate(b []byte) error {
	switch k {
	case KindBool:
		if len(b) != 1 || b[0] > 1 {
			return fmt.Errorf("%w: bool wants one byte 0x00 or 0x01, got % x", ErrMalformed, b)
		}
	case KindUTF8:
		if !utf8.Valid(b) {
			return fmt.Errorf("%w: invalid utf-8", ErrMalformed)
		}
	}
	return nil
}

// EncodeBool returns the wire encoding of v.
func EncodeBool(v bool) []byte {
	if v {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// DecodeBool decodes a KindBool value.
func DecodeBool(b []byte) (bool, error) {
	if err := KindBool.Validate(b); err != nil {
		return false, err
	}
	return b[0] == 0x01, nil
}

// An Entry backs one characteristic value.
type Entry struct {
	Name   string
	UUID   uuid.UUID
	Handle Handle
	Kind   Kind
	Perm   Perm

	mu    sync.RWMutex
	value []byte
}

func (e *Entry) Readable() bool   { return e.Perm&PermRead != 0 }
func (e *Entry) Writable() bool   { return e.Perm&(PermWrite|PermWriteNR) != 0 }
func (e *Entry) Notifiable() bool { return e.Perm&PermNotify != 0 }

// Value returns a copy of the current value.
func (e *Entry) Value() []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]byte(nil), e.value...)
}

// Set replaces the current value after checking it against the entry's kind.
func (e *Entry) Set(b []byte) error {
	if err := e.Kind.Validate(b); err != nil {
		return fmt.Errorf("attr: set %s: %w", e.Name, err)
	}
	v := append([]byte(nil), b...)
	e.mu.Lock()
	e.value = v
	e.mu.Unlock()
	return nil
}

// Bool returns the current value of a KindBool entry. Any other kind reports false.
func (e *Entry) Bool() bool {
	if e.Kind != KindBool {
		return false
	}
	v, _ := DecodeBool(e.Value())
	return v
}

// SetBool stores v in a KindBool entry.
func (e *Entry) SetBool(v bool) error {
	return e.Set(EncodeBool(v))
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s(0x%04x %s %s)", e.Name, uint16(e.Handle), e.Kind, e.Perm)
}
