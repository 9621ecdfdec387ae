// Package tinygo serves the attribute table over a real radio through
// tinygo.org/x/bluetooth: BlueZ on Linux, the SoftDevice or HCI controller on
// TinyGo boards.
package tinygo

import (
	"github.com/google/uuid"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
)

// Characteristic is a registered characteristic value.
type Characteristic interface {
	// Write updates the value and notifies a subscribed central.
	Write(value []byte) error
}

// CharacteristicSpec describes one characteristic to register.
type CharacteristicSpec struct {
	Handle attr.Handle
	UUID   uuid.UUID
	Perm   attr.Perm
	Value  []byte
	// OnWrite is called from the radio's event context for every write.
	OnWrite func(value []byte)
}

// Radio abstracts the peripheral side of the host adapter for testing.
type Radio interface {
	// Enable powers on the adapter.
	Enable() error
	// SetConnectHandler registers the callback for link up/down.
	SetConnectHandler(func(peer string, connected bool))
	// AddService registers a primary service and returns its characteristics
	// keyed by the table handle.
	AddService(svc uuid.UUID, chars []CharacteristicSpec) (map[attr.Handle]Characteristic, error)
	// StartAdvertising configures and starts undirected connectable advertising.
	StartAdvertising(d adv.Descriptor) error
	// StopAdvertising stops advertising. Stopping twice is not an error.
	StopAdvertising() error
}
