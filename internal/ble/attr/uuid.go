package attr

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// baseUUID is the Bluetooth base UUID, 00000000-0000-1000-8000-00805f9b34fb.
var baseUUID = uuid.UUID{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb}

// UUID16 expands a SIG-assigned 16-bit identifier onto the base UUID.
func UUID16(v uint16) uuid.UUID {
	u := baseUUID
	binary.BigEndian.PutUint16(u[2:4], v)
	return u
}

// Short returns the 16-bit form of u if u sits on the base UUID.
func Short(u uuid.UUID) (uint16, bool) {
	b := u
	b[2], b[3] = 0, 0
	if b != baseUUID {
		return 0, false
	}
	return binary.BigEndian.Uint16(u[2:4]), true
}

// WireBytes returns u in the little-endian order used on the air.
func WireBytes(u uuid.UUID) [16]byte {
	var b [16]byte
	for i := range u {
		b[15-i] = u[i]
	}
	return b
}

// AdvertisedID is the 16-bit identifier a service is announced under in the
// advertising payload. For a SIG UUID it is the assigned number. For a vendor
// UUID it is the low half of the first field, which reads as the first two
// bytes of the field-wise little-endian encoding.
func AdvertisedID(u uuid.UUID) uint16 {
	if v, ok := Short(u); ok {
		return v
	}
	return binary.BigEndian.Uint16(u[2:4])
}
