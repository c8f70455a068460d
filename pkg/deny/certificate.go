package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

// Certificate actions.
const (
	CertificateActionDelete             = "deleteCertificate"
	CertificateActionGenerate           = "generateCertificate"
	CertificateActionRevoke             = "revokeCertificate"
	CertificateActionDownload           = "downloadCertificate"
	CertificateActionDownloadCa         = "downloadCaCertificate"
	CertificateActionDownloadPrivateKey = "downloadPrivateKey"
	CertificateActionDownloadPkcs12     = "downloadPkcs12"
	CertificateActionUpload             = "uploadCertificates"
	CertificateActionUploadPkcs12       = "uploadPkcs12"
)

func certificateType(c *model.Certificate) *model.CertificateType {
	if c == nil {
		return nil
	}
	return c.CertificateType
}

// isCertificateOwner reports whether the acting user owns the certificate.
// Owner access relaxes the type-level download restriction.
func (r *Resolver) isCertificateOwner(c *model.Certificate) bool {
	return r.user != nil && c.UserID != nil && *c.UserID == r.user.ID
}

// DeleteCertificateDeny permits deleting only manually uploaded material.
// PKI-issued certificates must be revoked instead.
func (r *Resolver) DeleteCertificateDeny(c *model.Certificate) string {
	if !r.isGranted(security.RoleAdmin) {
		return ReasonAccessDenied
	}
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.DeleteEnabled {
		return ReasonAccessDenied
	}
	if !c.HasAnyCertificatePart() {
		return ReasonNoCertificate
	}
	if c.CertificateGenerated {
		return ReasonPkiGeneratedCertificate
	}
	return ""
}

// technicianVpnRoleDeny rejects owners that cannot use a technician VPN
// certificate: SmartEMS-only users without the VPN role.
func technicianVpnRoleDeny(c *model.Certificate) string {
	if c.CertificateType.CertificateCategory != model.CategoryTechnicianVpn {
		return ""
	}
	if c.User != nil && c.User.RoleSmartems && !c.User.RoleVpn {
		return ReasonRoleNotSupported
	}
	return ""
}

func (r *Resolver) GenerateCertificateDeny(c *model.Certificate) string {
	if !r.isGranted(security.RoleAdminScep) {
		return ReasonAccessDenied
	}
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.PkiEnabled || c.CertificateType.PkiType == model.PkiNone {
		return ReasonAccessDenied
	}
	if reason := technicianVpnRoleDeny(c); reason != "" {
		return reason
	}
	if c.HasAnyCertificatePart() {
		return ReasonHasCertificate
	}
	return ""
}

func (r *Resolver) RevokeCertificateDeny(c *model.Certificate) string {
	if !r.isGranted(security.RoleAdminScep) {
		return ReasonAccessDenied
	}
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.PkiEnabled || c.CertificateType.PkiType == model.PkiNone {
		return ReasonAccessDenied
	}
	if reason := technicianVpnRoleDeny(c); reason != "" {
		return reason
	}
	if !c.HasCertificate() {
		return ReasonNoCertificate
	}
	if !c.CertificateGenerated {
		return ReasonNotPkiGeneratedCertificate
	}
	return ""
}

func (r *Resolver) DownloadCertificateDeny(c *model.Certificate) string {
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.DownloadEnabled && !r.isCertificateOwner(c) {
		return ReasonAccessDenied
	}
	if c.CertificatePem == "" {
		return ReasonNoCertificate
	}
	return ""
}

func (r *Resolver) DownloadCaCertificateDeny(c *model.Certificate) string {
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.DownloadEnabled && !r.isCertificateOwner(c) {
		return ReasonAccessDenied
	}
	if c.CaCertificatePem == "" {
		return ReasonNoCaCertificate
	}
	return ""
}

func (r *Resolver) DownloadPrivateKeyDeny(c *model.Certificate) string {
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.DownloadEnabled && !r.isCertificateOwner(c) {
		return ReasonAccessDenied
	}
	if c.PrivateKeyPem == "" {
		return ReasonNoPrivateKey
	}
	return ""
}

func (r *Resolver) DownloadPkcs12Deny(c *model.Certificate) string {
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.DownloadEnabled && !r.isCertificateOwner(c) {
		return ReasonAccessDenied
	}
	if c.CertificatePem == "" {
		return ReasonNoCertificate
	}
	if c.PrivateKeyPem == "" {
		return ReasonNoPrivateKey
	}
	return ""
}

func (r *Resolver) UploadCertificatesDeny(c *model.Certificate) string {
	if !r.isGranted(security.RoleAdmin) {
		return ReasonAccessDenied
	}
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.UploadEnabled {
		return ReasonAccessDenied
	}
	if c.HasAnyCertificatePart() {
		return ReasonHasCertificate
	}
	return ""
}

func (r *Resolver) UploadPkcs12Deny(c *model.Certificate) string {
	if !r.isGranted(security.RoleAdmin) {
		return ReasonAccessDenied
	}
	if !r.isCertificateTypeAvailable(certificateType(c)) {
		return ReasonAccessDenied
	}
	if !c.CertificateType.UploadEnabled {
		return ReasonAccessDenied
	}
	if c.HasAnyCertificatePart() {
		return ReasonHasCertificate
	}
	return ""
}

// FillCertificateDeny computes the verdict over the full certificate action
// set. A certificate without a loaded type denies everything: fail closed
// on malformed input, never crash.
func (r *Resolver) FillCertificateDeny(c *model.Certificate) model.Verdict {
	verdict := model.Verdict{}
	actions := []string{
		CertificateActionDelete,
		CertificateActionGenerate,
		CertificateActionRevoke,
		CertificateActionDownload,
		CertificateActionDownloadCa,
		CertificateActionDownloadPrivateKey,
		CertificateActionDownloadPkcs12,
		CertificateActionUpload,
		CertificateActionUploadPkcs12,
	}
	if c == nil || c.CertificateType == nil {
		for _, action := range actions {
			verdict[action] = ReasonAccessDenied
		}
		return verdict
	}

	verdict[CertificateActionDelete] = r.DeleteCertificateDeny(c)
	verdict[CertificateActionGenerate] = r.GenerateCertificateDeny(c)
	verdict[CertificateActionRevoke] = r.RevokeCertificateDeny(c)
	verdict[CertificateActionDownload] = r.DownloadCertificateDeny(c)
	verdict[CertificateActionDownloadCa] = r.DownloadCaCertificateDeny(c)
	verdict[CertificateActionDownloadPrivateKey] = r.DownloadPrivateKeyDeny(c)
	verdict[CertificateActionDownloadPkcs12] = r.DownloadPkcs12Deny(c)
	verdict[CertificateActionUpload] = r.UploadCertificatesDeny(c)
	verdict[CertificateActionUploadPkcs12] = r.UploadPkcs12Deny(c)
	return verdict
}
