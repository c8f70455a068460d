package model

import "time"

// DeviceTypeSecret declares a secret slot for every device of a type.
// Access-tag scoped independently of the device.
type DeviceTypeSecret struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`

	DeviceTypeID uint `gorm:"index;not null" json:"deviceTypeId"`

	UseAsVariable      bool                 `json:"useAsVariable"`
	ManualEdit         bool                 `json:"manualEdit"`
	ManualForceRenewal bool                 `json:"manualForceRenewal"`
	SecretValueBehaviour SecretValueBehaviour `gorm:"not null;default:none" json:"secretValueBehaviour"`

	AccessTags []AccessTag `gorm:"many2many:device_type_secret_access_tags" json:"accessTags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeviceSecret is the per-device value for a device type secret slot.
// Values never leave the server unredacted.
type DeviceSecret struct {
	ID uint `gorm:"primaryKey" json:"id"`

	DeviceID uint    `gorm:"uniqueIndex:device_secret_slot" json:"deviceId"`
	Device   *Device `json:"-"`

	DeviceTypeSecretID uint              `gorm:"uniqueIndex:device_secret_slot" json:"deviceTypeSecretId"`
	DeviceTypeSecret   *DeviceTypeSecret `json:"-"`

	Value        string `gorm:"type:text" json:"-"`
	ForceRenewal bool   `json:"forceRenewal"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
