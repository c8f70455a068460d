package model

// CommunicationProcedure describes how a device type talks to the console.
type CommunicationProcedure string

const (
	CommunicationNone     CommunicationProcedure = "none"
	CommunicationNoneScep CommunicationProcedure = "noneScep"
	CommunicationNoneVpn  CommunicationProcedure = "noneVpn"
	CommunicationEdge     CommunicationProcedure = "edgeGateway"
	CommunicationEdgeVpn  CommunicationProcedure = "edgeGatewayVpnContainer"
)

// Communicates reports whether the procedure carries device traffic at all.
func (p CommunicationProcedure) Communicates() bool {
	switch p {
	case CommunicationNone, CommunicationNoneScep, CommunicationNoneVpn:
		return false
	}
	return true
}

// AuthenticationMethod is the transport-level device authentication mechanism.
type AuthenticationMethod string

const (
	AuthenticationNone   AuthenticationMethod = "none"
	AuthenticationBasic  AuthenticationMethod = "basic"
	AuthenticationDigest AuthenticationMethod = "digest"
	AuthenticationX509   AuthenticationMethod = "x509"
)

// CredentialsSource selects where basic/digest device credentials come from.
type CredentialsSource string

const (
	CredentialsSecret              CredentialsSource = "secret"
	CredentialsUser                CredentialsSource = "user"
	CredentialsUserIfSecretMissing CredentialsSource = "userIfSecretMissing"
	CredentialsBoth                CredentialsSource = "both"
)

// PkiType identifies the PKI backend behind a certificate type.
type PkiType string

const (
	PkiNone PkiType = "none"
	PkiScep PkiType = "scep"
)

// CertificateCategory partitions certificate types by their role in the system.
type CertificateCategory string

const (
	CategoryDeviceVpn     CertificateCategory = "deviceVpn"
	CategoryTechnicianVpn CertificateCategory = "technicianVpn"
	CategoryCustom        CertificateCategory = "custom"
)

// CertificateEntity is the owner kind a certificate type applies to.
type CertificateEntity string

const (
	CertificateEntityDevice CertificateEntity = "device"
	CertificateEntityUser   CertificateEntity = "user"
)

// TemplateVersionType distinguishes editable staging versions from frozen
// production ones.
type TemplateVersionType string

const (
	TemplateVersionStaging    TemplateVersionType = "staging"
	TemplateVersionProduction TemplateVersionType = "production"
)

// SecretValueBehaviour controls automatic device secret renewal.
type SecretValueBehaviour string

const (
	SecretValueNone     SecretValueBehaviour = "none"
	SecretValueGenerate SecretValueBehaviour = "generate"
	SecretValueRequest  SecretValueBehaviour = "request"
)

// Feature selects one of the three config/firmware slots of a device type.
type Feature int

const (
	FeaturePrimary Feature = iota + 1
	FeatureSecondary
	FeatureTertiary
)
