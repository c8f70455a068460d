package model

import "time"

// VpnConnection links a user to a device or endpoint device. Permanent
// connections are managed outside the open/close lifecycle and are excluded
// from its uniqueness and closability rules.
type VpnConnection struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Permanent bool `gorm:"not null;default:false" json:"permanent"`

	UserID uint  `gorm:"index;not null" json:"userId"`
	User   *User `json:"-"`

	DeviceID *uint   `gorm:"index" json:"deviceId,omitempty"`
	Device   *Device `json:"-"`

	EndpointDeviceID *uint                 `gorm:"index" json:"endpointDeviceId,omitempty"`
	EndpointDevice   *DeviceEndpointDevice `json:"-"`

	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`

	ConnectionStartAt *time.Time `json:"connectionStartAt,omitempty"`
	ConnectionEndAt   *time.Time `json:"connectionEndAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TargetsDevice reports whether the connection targets the given device
// directly (not one of its endpoint devices).
func (c *VpnConnection) TargetsDevice(deviceID uint) bool {
	return c.EndpointDeviceID == nil && c.DeviceID != nil && *c.DeviceID == deviceID
}

// TargetsEndpointDevice reports whether the connection targets the given
// endpoint device.
func (c *VpnConnection) TargetsEndpointDevice(endpointDeviceID uint) bool {
	return c.EndpointDeviceID != nil && *c.EndpointDeviceID == endpointDeviceID
}
