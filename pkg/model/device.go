package model

import "time"

// DeviceType is the immutable capability surface consulted by nearly every
// device-action resolver.
type DeviceType struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"uniqueIndex;not null" json:"name"`
	Enabled bool   `gorm:"not null;default:true" json:"enabled"`

	HasCertificates   bool `json:"hasCertificates"`
	IsVpnAvailable    bool `json:"isVpnAvailable"`
	HasTemplates      bool `json:"hasTemplates"`
	HasVariables      bool `json:"hasVariables"`
	HasConfig1        bool `json:"hasConfig1"`
	HasConfig2        bool `json:"hasConfig2"`
	HasConfig3        bool `json:"hasConfig3"`
	HasFirmware1      bool `json:"hasFirmware1"`
	HasFirmware2      bool `json:"hasFirmware2"`
	HasFirmware3      bool `json:"hasFirmware3"`
	HasDeviceCommands bool `json:"hasDeviceCommands"`
	HasRequestDiagnose bool `json:"hasRequestDiagnose"`

	CommunicationProcedure CommunicationProcedure `gorm:"not null;default:none" json:"communicationProcedure"`
	AuthenticationMethod   AuthenticationMethod   `gorm:"not null;default:none" json:"authenticationMethod"`
	CredentialsSource      CredentialsSource      `gorm:"not null;default:secret" json:"credentialsSource"`

	CertificateTypes []DeviceTypeCertificateType `gorm:"foreignKey:DeviceTypeID" json:"-"`

	// Reverse relations used by the used-by deny chain.
	Devices           []Device           `gorm:"foreignKey:DeviceTypeID" json:"-"`
	Templates         []Template         `gorm:"foreignKey:DeviceTypeID" json:"-"`
	TemplateVersions  []TemplateVersion  `gorm:"foreignKey:DeviceTypeID" json:"-"`
	Configs           []Config           `gorm:"foreignKey:DeviceTypeID" json:"-"`
	Firmwares         []Firmware         `gorm:"foreignKey:DeviceTypeID" json:"-"`
	DeviceTypeSecrets []DeviceTypeSecret `gorm:"foreignKey:DeviceTypeID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasConfig reports the config capability for a slot.
func (t *DeviceType) HasConfig(feature Feature) bool {
	switch feature {
	case FeaturePrimary:
		return t.HasConfig1
	case FeatureSecondary:
		return t.HasConfig2
	case FeatureTertiary:
		return t.HasConfig3
	}
	return false
}

// HasAnyConfig reports whether any config slot is enabled.
func (t *DeviceType) HasAnyConfig() bool {
	return t.HasConfig1 || t.HasConfig2 || t.HasConfig3
}

// HasX509CertificateTypeCredential reports whether an x509 credential
// certificate type is bound to this device type.
func (t *DeviceType) HasX509CertificateTypeCredential() bool {
	for _, dtct := range t.CertificateTypes {
		if dtct.CredentialUse {
			return true
		}
	}
	return false
}

// DeviceTypeCertificateType binds a certificate type to a device type and
// records whether it is enabled for that device type.
type DeviceTypeCertificateType struct {
	ID                uint `gorm:"primaryKey" json:"id"`
	DeviceTypeID      uint `gorm:"uniqueIndex:device_type_certificate_type" json:"deviceTypeId"`
	CertificateTypeID uint `gorm:"uniqueIndex:device_type_certificate_type" json:"certificateTypeId"`
	Enabled           bool `gorm:"not null;default:true" json:"enabled"`
	// CredentialUse marks the certificate type used as x509 device credential.
	CredentialUse bool `json:"credentialUse"`

	CertificateType CertificateType `json:"certificateType"`
}

// Device is a managed network element. Scoped by access tags, optionally
// VPN-capable through its device type.
type Device struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"uniqueIndex;not null" json:"name"`
	Enabled bool   `gorm:"not null;default:false" json:"enabled"`

	DeviceTypeID uint        `gorm:"index;not null" json:"deviceTypeId"`
	DeviceType   *DeviceType `json:"deviceType,omitempty"`

	TemplateID        *uint            `json:"templateId,omitempty"`
	Template          *Template        `json:"-"`
	TemplateVersionID *uint            `json:"templateVersionId,omitempty"`
	TemplateVersion   *TemplateVersion `json:"-"`

	VpnIp        string `json:"vpnIp,omitempty"`
	VpnConnected bool   `json:"vpnConnected"`

	AccessTags      []AccessTag            `gorm:"many2many:device_access_tags" json:"accessTags,omitempty"`
	EndpointDevices []DeviceEndpointDevice `gorm:"foreignKey:DeviceID" json:"endpointDevices,omitempty"`
	VpnConnections  []VpnConnection        `gorm:"foreignKey:DeviceID" json:"vpnConnections,omitempty"`
	Certificates    []Certificate          `gorm:"foreignKey:DeviceID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeviceEndpointDevice is a device reachable only through its parent
// device's VPN (for example a machine behind an edge gateway).
type DeviceEndpointDevice struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`

	DeviceID uint    `gorm:"index;not null" json:"deviceId"`
	Device   *Device `json:"-"`

	PhysicalIp string `json:"physicalIp,omitempty"`

	AccessTags     []AccessTag     `gorm:"many2many:device_endpoint_device_access_tags" json:"accessTags,omitempty"`
	VpnConnections []VpnConnection `gorm:"foreignKey:EndpointDeviceID" json:"vpnConnections,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
