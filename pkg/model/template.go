package model

import "time"

// Template groups template versions for a device type and carries the
// currently selected staging and production versions.
type Template struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	DeviceTypeID uint        `gorm:"index;not null" json:"deviceTypeId"`
	DeviceType   *DeviceType `json:"-"`

	CreatedByID *uint `gorm:"index" json:"createdById,omitempty"`
	CreatedBy   *User `json:"-"`

	StagingVersionID    *uint `json:"stagingVersionId,omitempty"`
	ProductionVersionID *uint `json:"productionVersionId,omitempty"`

	Devices  []Device          `gorm:"foreignKey:TemplateID" json:"-"`
	Versions []TemplateVersion `gorm:"foreignKey:TemplateID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsStaging reports whether the version is the template's selected staging
// version.
func (t *Template) IsStaging(version *TemplateVersion) bool {
	return t.StagingVersionID != nil && version != nil && *t.StagingVersionID == version.ID
}

// IsProduction reports whether the version is the template's selected
// production version.
func (t *Template) IsProduction(version *TemplateVersion) bool {
	return t.ProductionVersionID != nil && version != nil && *t.ProductionVersionID == version.ID
}

// TemplateVersion references exactly one template and up to three config and
// firmware slots. Production versions are frozen.
type TemplateVersion struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`

	TemplateID uint      `gorm:"index;not null" json:"templateId"`
	Template   *Template `json:"-"`

	DeviceTypeID uint                `gorm:"index;not null" json:"deviceTypeId"`
	Type         TemplateVersionType `gorm:"not null;default:staging" json:"type"`

	CreatedByID *uint `gorm:"index" json:"createdById,omitempty"`
	CreatedBy   *User `json:"-"`

	Config1ID *uint   `gorm:"index" json:"config1Id,omitempty"`
	Config1   *Config `json:"-"`
	Config2ID *uint   `gorm:"index" json:"config2Id,omitempty"`
	Config2   *Config `json:"-"`
	Config3ID *uint   `gorm:"index" json:"config3Id,omitempty"`
	Config3   *Config `json:"-"`

	Firmware1ID *uint     `gorm:"index" json:"firmware1Id,omitempty"`
	Firmware1   *Firmware `json:"-"`
	Firmware2ID *uint     `gorm:"index" json:"firmware2Id,omitempty"`
	Firmware2   *Firmware `json:"-"`
	Firmware3ID *uint     `gorm:"index" json:"firmware3Id,omitempty"`
	Firmware3   *Firmware `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasConfig reports whether the given slot is filled.
func (v *TemplateVersion) HasConfig(feature Feature) bool {
	switch feature {
	case FeaturePrimary:
		return v.Config1ID != nil
	case FeatureSecondary:
		return v.Config2ID != nil
	case FeatureTertiary:
		return v.Config3ID != nil
	}
	return false
}

// TemplateComponent is a Config or Firmware: structurally identical for
// scoping, reachable through template-version slots.
type TemplateComponent interface {
	ComponentID() uint
	ComponentCreatedByID() *uint
	// ReferencedVersions returns every template version referencing the
	// component through any of its three slots. Relations must be preloaded
	// by the caller; this never touches storage.
	ReferencedVersions() []TemplateVersion
}

// Config is device configuration content attached to template version slots.
type Config struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	DeviceTypeID uint   `gorm:"index;not null" json:"deviceTypeId"`
	Content      string `gorm:"type:text" json:"-"`

	CreatedByID *uint `gorm:"index" json:"createdById,omitempty"`
	CreatedBy   *User `json:"-"`

	Versions1 []TemplateVersion `gorm:"foreignKey:Config1ID" json:"-"`
	Versions2 []TemplateVersion `gorm:"foreignKey:Config2ID" json:"-"`
	Versions3 []TemplateVersion `gorm:"foreignKey:Config3ID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Config) ComponentID() uint           { return c.ID }
func (c *Config) ComponentCreatedByID() *uint { return c.CreatedByID }

func (c *Config) ReferencedVersions() []TemplateVersion {
	versions := make([]TemplateVersion, 0, len(c.Versions1)+len(c.Versions2)+len(c.Versions3))
	versions = append(versions, c.Versions1...)
	versions = append(versions, c.Versions2...)
	versions = append(versions, c.Versions3...)
	return versions
}

// Firmware is a firmware image reference attached to template version slots.
// File storage is handled elsewhere; only the reference graph matters here.
type Firmware struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	DeviceTypeID uint   `gorm:"index;not null" json:"deviceTypeId"`
	Filename     string `json:"filename,omitempty"`

	CreatedByID *uint `gorm:"index" json:"createdById,omitempty"`
	CreatedBy   *User `json:"-"`

	Versions1 []TemplateVersion `gorm:"foreignKey:Firmware1ID" json:"-"`
	Versions2 []TemplateVersion `gorm:"foreignKey:Firmware2ID" json:"-"`
	Versions3 []TemplateVersion `gorm:"foreignKey:Firmware3ID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Firmware) ComponentID() uint           { return f.ID }
func (f *Firmware) ComponentCreatedByID() *uint { return f.CreatedByID }

func (f *Firmware) ReferencedVersions() []TemplateVersion {
	versions := make([]TemplateVersion, 0, len(f.Versions1)+len(f.Versions2)+len(f.Versions3))
	versions = append(versions, f.Versions1...)
	versions = append(versions, f.Versions2...)
	versions = append(versions, f.Versions3...)
	return versions
}
