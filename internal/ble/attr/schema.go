package attr

import "github.com/google/uuid"

// Characteristic names of the device schema.
const (
	GAPDeviceName = "gap.device_name"
	GAPAppearance = "gap.appearance"
	HealthStatus  = "health.status"
	LEDState      = "led.val"
)

// SIG-assigned identifiers.
var (
	GAPServiceUUID  = UUID16(0x1800)
	GATTServiceUUID = UUID16(0x1801)
	DeviceNameUUID  = UUID16(0x2A00)
	AppearanceUUID  = UUID16(0x2A01)
)

// Vendor services of the device.
var (
	HealthServiceUUID = uuid.MustParse("c7d9a5b0-6c1a-4b2c-9b3a-3d45e6a10000")
	HealthStatusUUID  = uuid.MustParse("c7d9a5b0-6c1a-4b2c-9b3a-3d45e6a10001")
	LEDServiceUUID    = uuid.MustParse("c7d9a5b0-6c1a-4b2c-9b3a-3d45e6a20000")
	LEDStateUUID      = uuid.MustParse("c7d9a5b0-6c1a-4b2c-9b3a-3d45e6a20001")
)

// appearanceUnknown is the GAP appearance value 0x0000, little-endian.
var appearanceUnknown = []byte{0x00, 0x00}

// Schema returns the service declarations of the device. The GAP and GATT
// services come first so the vendor handles are the same on every backend.
func Schema(gapName string) []ServiceDecl {
	return []ServiceDecl{
		{
			Name: "gap",
			UUID: GAPServiceUUID,
			Chars: []CharDecl{
				{Name: GAPDeviceName, UUID: DeviceNameUUID, Kind: KindUTF8, Perm: PermRead, Default: []byte(gapName)},
				{Name: GAPAppearance, UUID: AppearanceUUID, Kind: KindBytes, Perm: PermRead, Default: appearanceUnknown},
			},
		},
		{Name: "gatt", UUID: GATTServiceUUID},
		{
			Name: "health",
			UUID: HealthServiceUUID,
			Chars: []CharDecl{
				{Name: HealthStatus, UUID: HealthStatusUUID, Kind: KindBool, Perm: PermRead | PermNotify, Default: EncodeBool(true)},
			},
		},
		{
			Name: "led",
			UUID: LEDServiceUUID,
			Chars: []CharDecl{
				{Name: LEDState, UUID: LEDStateUUID, Kind: KindBool, Perm: PermWrite, Default: EncodeBool(false)},
			},
		},
	}
}

// NewDefault builds the device table with all values at their power-on defaults.
func NewDefault(gapName string) (*Table, error) {
	return Build(Schema(gapName)...)
}

// IsVendor reports whether s is one of the application services rather than
// the GAP or GATT service the host stack provides.
func (s *Service) IsVendor() bool {
	return s.UUID != GAPServiceUUID && s.UUID != GATTServiceUUID
}
