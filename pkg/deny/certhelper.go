package deny

import (
	"errors"

	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// CertificateTypeAvailableDeny layers license and PKI configuration state on
// top of the certificate type's static enabled flag.
func (r *Resolver) CertificateTypeAvailableDeny(ct *model.CertificateType) string {
	if ct == nil || !ct.Enabled {
		return ReasonDisabled
	}

	// VPN certificate categories require an unblocked VPN security suite.
	switch ct.CertificateCategory {
	case model.CategoryDeviceVpn, model.CategoryTechnicianVpn:
		if r.cfg.VpnSuiteBlocked {
			return ReasonVpnLicenseRequired
		}
	}

	if ct.PkiType == model.PkiScep {
		if r.cfg.ScepBlocked {
			return ReasonScepLicenseRequired
		}
		if !r.cfg.ScepAvailable() {
			return ReasonInvalidScepConfiguration
		}
	}

	return ""
}

func (r *Resolver) isCertificateTypeAvailable(ct *model.CertificateType) bool {
	return r.CertificateTypeAvailableDeny(ct) == ""
}

// isCertificateTypePkiAvailable reports whether the type's PKI backend can
// actually issue certificates right now.
func (r *Resolver) isCertificateTypePkiAvailable(ct *model.CertificateType) bool {
	if ct == nil {
		return false
	}
	switch ct.PkiType {
	case model.PkiScep:
		return r.cfg.ScepAvailable()
	default:
		return false
	}
}

func (r *Resolver) certificateTypeByCategory(category model.CertificateCategory, entity model.CertificateEntity) *model.CertificateType {
	var ct model.CertificateType
	err := r.db.
		Where("certificate_category = ? AND certificate_entity = ?", category, entity).
		First(&ct).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// Lookup failure means no usable type; guards fail closed.
			return nil
		}
		return nil
	}
	return &ct
}

func certificateByType(certificates []model.Certificate, certificateTypeID uint) *model.Certificate {
	for i := range certificates {
		if certificates[i].CertificateTypeID == certificateTypeID {
			return &certificates[i]
		}
	}
	return nil
}

// deviceVpnCertificate returns the device's VPN certificate, nil when the
// device VPN certificate type does not exist or the device has no record.
// The device's Certificates must be preloaded.
func (r *Resolver) deviceVpnCertificate(device *model.Device) *model.Certificate {
	ct := r.certificateTypeByCategory(model.CategoryDeviceVpn, model.CertificateEntityDevice)
	if ct == nil || device == nil {
		return nil
	}
	return certificateByType(device.Certificates, ct.ID)
}

// technicianVpnCertificate is the user-side counterpart of
// deviceVpnCertificate.
func (r *Resolver) technicianVpnCertificate(user *model.User) *model.Certificate {
	ct := r.certificateTypeByCategory(model.CategoryTechnicianVpn, model.CertificateEntityUser)
	if ct == nil || user == nil {
		return nil
	}
	return certificateByType(user.Certificates, ct.ID)
}

// availableDeviceCertificateTypes lists the device-entity certificate types
// bound and enabled on the device's type that are currently available.
func (r *Resolver) availableDeviceCertificateTypes(device *model.Device) []model.CertificateType {
	if device == nil || device.DeviceType == nil {
		return nil
	}

	var available []model.CertificateType
	for _, binding := range device.DeviceType.CertificateTypes {
		if !binding.Enabled {
			continue
		}
		if binding.CertificateType.CertificateEntity != model.CertificateEntityDevice {
			continue
		}
		if !r.isCertificateTypeAvailable(&binding.CertificateType) {
			continue
		}
		available = append(available, binding.CertificateType)
	}
	return available
}

// availableUserCertificateTypes lists every available user-entity
// certificate type in the system.
func (r *Resolver) availableUserCertificateTypes() []model.CertificateType {
	var types []model.CertificateType
	if err := r.db.Where("certificate_entity = ?", model.CertificateEntityUser).Find(&types).Error; err != nil {
		return nil
	}

	var available []model.CertificateType
	for i := range types {
		if r.isCertificateTypeAvailable(&types[i]) {
			available = append(available, types[i])
		}
	}
	return available
}
