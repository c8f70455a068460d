package model

import "time"

// User is the acting principal: stored role flags, access-tag scope and
// gating state. Role derivation lives in pkg/security, never here.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex" json:"username"`
	Enabled  bool   `gorm:"not null;default:true" json:"enabled"`

	RoleAdmin                 bool `json:"roleAdmin"`
	RoleSmartems              bool `json:"roleSmartems"`
	RoleVpn                   bool `json:"roleVpn"`
	RoleVpnEndpointDevices    bool `json:"roleVpnEndpointDevices"`
	RoleDevice                bool `json:"-"`
	RoleDeviceSecretCredential bool `json:"-"`
	RoleDeviceX509Credential  bool `json:"-"`

	RadiusUser                 bool `json:"radiusUser"`
	RadiusUserAllDevicesAccess bool `json:"-"`
	SsoUser                    bool `json:"ssoUser"`

	PasswordExpired             bool   `json:"-"`
	TotpRequired                bool   `json:"-"`
	TotpSecret                  string `json:"-"`
	TooManyFailedLoginAttempts  bool   `json:"-"`

	// TokenHash authenticates the user on the HTTP API (HMAC of the bearer
	// token, never the raw value).
	TokenHash string `gorm:"index" json:"-"`

	VpnConnected bool `json:"vpnConnected"`

	AccessTags     []AccessTag     `gorm:"many2many:user_access_tags" json:"accessTags,omitempty"`
	VpnConnections []VpnConnection `gorm:"foreignKey:UserID" json:"-"`
	Certificates   []Certificate   `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasAccessTag reports whether the tag is in the user's scope.
func (u *User) HasAccessTag(tagID uint) bool {
	for _, tag := range u.AccessTags {
		if tag.ID == tagID {
			return true
		}
	}
	return false
}

// IntersectsAccessTags reports whether any of the given tags is in the
// user's scope. Empty input never intersects.
func (u *User) IntersectsAccessTags(tags []AccessTag) bool {
	for _, tag := range tags {
		if u.HasAccessTag(tag.ID) {
			return true
		}
	}
	return false
}

// AccessTag is an opaque scoping label shared by users, devices and
// device type secrets.
type AccessTag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// UserDeviceType is an explicit per-device-type grant for the device role.
type UserDeviceType struct {
	ID           uint `gorm:"primaryKey"`
	UserID       uint `gorm:"uniqueIndex:user_device_type"`
	DeviceTypeID uint `gorm:"uniqueIndex:user_device_type"`
}
