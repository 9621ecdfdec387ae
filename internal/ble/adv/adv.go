// Package adv builds the advertising descriptor of the peripheral and encodes
// it into the advertising and scan response payloads.
package adv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
)

// MaxEIRPacketLength is the maximum advertising or scan response payload length.
const MaxEIRPacketLength = 31

// MaxNameLength is the longest name that fits the scan response.
const MaxNameLength = MaxEIRPacketLength - 2

// DefaultInterval is the advertising interval used when none is configured.
const DefaultInterval = 20 * time.Millisecond

var (
	// ErrEIRPacketTooLong is returned when a payload exceeds MaxEIRPacketLength.
	ErrEIRPacketTooLong = errors.New("adv: max packet length is 31")
	// ErrEmptyName is returned for a descriptor without a name.
	ErrEmptyName = errors.New("adv: name must not be empty")
)

// advertising data field types
const (
	typeFlags        = 0x01 // Flags
	typeAllUUID16    = 0x03 // Complete List of 16-bit Service Class UUIDs
	typeCompleteName = 0x09 // Complete Local Name
)

// flag bits
const (
	FlagGeneralDiscoverable = 1 << 1 // LE General Discoverable Mode
	FlagLEOnly              = 1 << 2 // BR/EDR Not Supported
)

// Descriptor is what the peripheral broadcasts while no central is connected.
type Descriptor struct {
	Name       string
	Flags      byte
	ServiceIDs []uint16
	Interval   time.Duration
}

// NewDescriptor announces name together with the 16-bit identifier of every
// vendor service in t, in table order.
func NewDescriptor(name string, t *attr.Table, interval time.Duration) Descriptor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d := Descriptor{
		Name:     name,
		Flags:    FlagGeneralDiscoverable | FlagLEOnly,
		Interval: interval,
	}
	for _, svc := range t.Services() {
		if svc.IsVendor() {
			d.ServiceIDs = append(d.ServiceIDs, attr.AdvertisedID(svc.UUID))
		}
	}
	return d
}

// Validate reports whether d can be encoded. An oversized descriptor is a
// configuration error and is never attempted on the radio.
func (d Descriptor) Validate() error {
	_, _, err := d.Encode()
	return err
}

// Encode returns the advertising data (flags and service identifiers) and the
// scan response (complete local name).
func (d Descriptor) Encode() (advData, scanData []byte, err error) {
	if d.Name == "" {
		return nil, nil, ErrEmptyName
	}

	adv := new(packet)
	if err := adv.appendField(typeFlags, []byte{d.Flags}); err != nil {
		return nil, nil, err
	}
	if len(d.ServiceIDs) > 0 {
		ids := make([]byte, 0, 2*len(d.ServiceIDs))
		for _, id := range d.ServiceIDs {
			ids = binary.LittleEndian.AppendUint16(ids, id)
		}
		if err := adv.appendField(typeAllUUID16, ids); err != nil {
			return nil, nil, fmt.Errorf("adv: %d service identifiers: %w", len(d.ServiceIDs), err)
		}
	}

	scan := new(packet)
	if err := scan.appendField(typeCompleteName, []byte(d.Name)); err != nil {
		return nil, nil, fmt.Errorf("adv: name %q: %w", d.Name, err)
	}
	return adv.data, scan.data, nil
}

type packet struct {
	data []byte
}

// appendField appends a length-type-value field, refusing to grow the packet
// past MaxEIRPacketLength.
func (p *packet) appendField(typ byte, data []byte) error {
	if len(p.data)+2+len(data) > MaxEIRPacketLength {
		return ErrEIRPacketTooLong
	}
	p.data = append(p.data, byte(len(data)+1), typ)
	p.data = append(p.data, data...)
	return nil
}
