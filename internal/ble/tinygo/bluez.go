//go:build linux || baremetal

package tinygo

import (
	"fmt"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
)

// DefaultRadio wraps bluetooth.DefaultAdapter.
type DefaultRadio struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
}

// NewDefaultRadio returns the radio backed by the default adapter.
func NewDefaultRadio() (Radio, error) {
	return &DefaultRadio{adapter: bluetooth.DefaultAdapter}, nil
}

var _ Radio = (*DefaultRadio)(nil)

func (r *DefaultRadio) Enable() error {
	if err := r.adapter.Enable(); err != nil {
		return err
	}
	r.adv = r.adapter.DefaultAdvertisement()
	return nil
}

func (r *DefaultRadio) SetConnectHandler(h func(peer string, connected bool)) {
	r.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		h(device.Address.String(), connected)
	})
}

func (r *DefaultRadio) AddService(svc uuid.UUID, specs []CharacteristicSpec) (map[attr.Handle]Characteristic, error) {
	handles := make([]bluetooth.Characteristic, len(specs))
	configs := make([]bluetooth.CharacteristicConfig, len(specs))
	for i, spec := range specs {
		cfg := bluetooth.CharacteristicConfig{
			Handle: &handles[i],
			UUID:   bluetooth.NewUUID(spec.UUID),
			Value:  spec.Value,
			Flags:  permissions(spec.Perm),
		}
		if spec.OnWrite != nil {
			onWrite := spec.OnWrite
			cfg.WriteEvent = func(_ bluetooth.Connection, _ int, value []byte) {
				onWrite(append([]byte(nil), value...))
			}
		}
		configs[i] = cfg
	}
	if err := r.adapter.AddService(&bluetooth.Service{
		UUID:            bluetooth.NewUUID(svc),
		Characteristics: configs,
	}); err != nil {
		return nil, fmt.Errorf("tinygo: add service %s: %w", svc, err)
	}

	chars := make(map[attr.Handle]Characteristic, len(specs))
	for i, spec := range specs {
		chars[spec.Handle] = characteristic{&handles[i]}
	}
	return chars, nil
}

func (r *DefaultRadio) StartAdvertising(d adv.Descriptor) error {
	ids := make([]bluetooth.UUID, len(d.ServiceIDs))
	for i, id := range d.ServiceIDs {
		ids[i] = bluetooth.New16BitUUID(id)
	}
	if err := r.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    d.Name,
		ServiceUUIDs: ids,
		Interval:     bluetooth.NewDuration(d.Interval),
	}); err != nil {
		return fmt.Errorf("tinygo: configure advertisement: %w", err)
	}
	return r.adv.Start()
}

func (r *DefaultRadio) StopAdvertising() error {
	return r.adv.Stop()
}

func permissions(p attr.Perm) bluetooth.CharacteristicPermissions {
	var flags bluetooth.CharacteristicPermissions
	if p&attr.PermRead != 0 {
		flags |= bluetooth.CharacteristicReadPermission
	}
	if p&attr.PermWrite != 0 {
		flags |= bluetooth.CharacteristicWritePermission
	}
	if p&attr.PermWriteNR != 0 {
		flags |= bluetooth.CharacteristicWriteWithoutResponsePermission
	}
	if p&attr.PermNotify != 0 {
		flags |= bluetooth.CharacteristicNotifyPermission
	}
	return flags
}

type characteristic struct {
	c *bluetooth.Characteristic
}

func (c characteristic) Write(value []byte) error {
	_, err := c.c.Write(value)
	return err
}
