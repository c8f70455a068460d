package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

// CertificateTypeDeny is the aggregated "any certificate functionality
// available" verdict for a certificate-capable owner. It gates the whole
// fan-out: a non-empty reason yields an empty useableCertificates list.
func (r *Resolver) CertificateTypeDeny(owner any) string {
	switch o := owner.(type) {
	case *model.Device:
		if !r.isAdminOrSmartems() {
			return ReasonAccessDenied
		}
		if o.DeviceType == nil || !o.DeviceType.HasCertificates {
			return ReasonDisabledInDeviceType
		}
		if len(r.availableDeviceCertificateTypes(o)) == 0 {
			return ReasonAccessDenied
		}
		return ""
	case *model.User:
		if !r.isGranted(security.RoleAdmin) && !r.isCurrentUser(o) {
			return ReasonAccessDenied
		}
		// Certificates may be assigned manually for smartems users.
		if !o.RoleAdmin && !o.RoleVpn && !o.RoleSmartems {
			return ReasonCertificateTypeNotApplicable
		}
		if len(r.availableUserCertificateTypes()) == 0 {
			return ReasonAccessDenied
		}
		return ""
	default:
		// Only devices and users hold certificates.
		return ReasonAccessDenied
	}
}

// ValidCertificateTypes lists the certificate types the fan-out covers for
// the owner, empty when the aggregated verdict denies.
func (r *Resolver) ValidCertificateTypes(owner any) []model.CertificateType {
	if r.CertificateTypeDeny(owner) != "" {
		return nil
	}
	switch o := owner.(type) {
	case *model.Device:
		return r.availableDeviceCertificateTypes(o)
	case *model.User:
		return r.availableUserCertificateTypes()
	}
	return nil
}

// UseableCertificates produces the per-type verdict collection for a
// certificate-capable owner. Types without a stored certificate get a
// transient draft so every guard runs against a uniform shape; drafts are
// never persisted.
func (r *Resolver) UseableCertificates(owner any) []model.UseableCertificate {
	types := r.ValidCertificateTypes(owner)
	useable := make([]model.UseableCertificate, 0, len(types))

	for i := range types {
		ct := types[i]
		certificate := r.certificateForOwner(owner, &ct)
		entry := model.UseableCertificate{
			CertificateType: ct,
			Deny:            r.FillCertificateDeny(certificate),
		}
		if certificate.ID != 0 {
			entry.Certificate = certificate
		}
		useable = append(useable, entry)
	}
	return useable
}

func (r *Resolver) certificateForOwner(owner any, ct *model.CertificateType) *model.Certificate {
	switch o := owner.(type) {
	case *model.Device:
		if existing := certificateByType(o.Certificates, ct.ID); existing != nil {
			if existing.CertificateType == nil {
				existing.CertificateType = ct
			}
			if existing.Device == nil {
				existing.Device = o
			}
			return existing
		}
		deviceID := o.ID
		return &model.Certificate{
			CertificateTypeID: ct.ID,
			CertificateType:   ct,
			DeviceID:          &deviceID,
			Device:            o,
		}
	case *model.User:
		if existing := certificateByType(o.Certificates, ct.ID); existing != nil {
			if existing.CertificateType == nil {
				existing.CertificateType = ct
			}
			if existing.User == nil {
				existing.User = o
			}
			return existing
		}
		userID := o.ID
		return &model.Certificate{
			CertificateTypeID: ct.ID,
			CertificateType:   ct,
			UserID:            &userID,
			User:              o,
		}
	}
	return &model.Certificate{CertificateTypeID: ct.ID, CertificateType: ct}
}
