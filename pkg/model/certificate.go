package model

import "time"

// CertificateType declares what may be done with certificates of its kind.
// Availability here is static configuration; license/PKI availability is
// layered on top by the deny resolvers using the config snapshot.
type CertificateType struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"uniqueIndex;not null" json:"name"`
	Enabled bool   `gorm:"not null;default:true" json:"enabled"`

	PkiEnabled bool    `json:"pkiEnabled"`
	PkiType    PkiType `gorm:"not null;default:none" json:"pkiType"`

	DeleteEnabled   bool `json:"deleteEnabled"`
	DownloadEnabled bool `json:"downloadEnabled"`
	UploadEnabled   bool `json:"uploadEnabled"`

	CertificateCategory CertificateCategory `gorm:"not null;default:custom" json:"certificateCategory"`
	CertificateEntity   CertificateEntity   `gorm:"not null;default:device" json:"certificateEntity"`
}

// Certificate holds issued or uploaded certificate material for exactly one
// owner (device or user). The engine only reads material-presence state,
// never the material semantics.
type Certificate struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CertificateTypeID uint             `gorm:"index" json:"certificateTypeId"`
	CertificateType   *CertificateType `json:"certificateType,omitempty"`

	DeviceID *uint   `gorm:"index" json:"deviceId,omitempty"`
	Device   *Device `json:"-"`
	UserID   *uint   `gorm:"index" json:"userId,omitempty"`
	User     *User   `json:"-"`

	CertificatePem   string `gorm:"column:certificate;type:text" json:"-"`
	PrivateKeyPem    string `gorm:"column:private_key;type:text" json:"-"`
	CaCertificatePem string `gorm:"column:ca_certificate;type:text" json:"-"`

	// CertificateGenerated is true only for PKI-issued material, false for
	// manual uploads. PKI-issued certificates are revoked, never deleted.
	CertificateGenerated bool `json:"certificateGenerated"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasCertificate reports whether the full certificate material is present.
func (c *Certificate) HasCertificate() bool {
	return c.CertificatePem != "" && c.CaCertificatePem != "" && c.PrivateKeyPem != ""
}

// HasAnyCertificatePart reports whether any material is present at all.
func (c *Certificate) HasAnyCertificatePart() bool {
	return c.CertificatePem != "" || c.CaCertificatePem != "" || c.PrivateKeyPem != ""
}
