// Package security resolves roles and access-tag scope for the current
// actor. Every check is recomputed per call against an immutable config
// snapshot; nothing here caches across requests.
package security

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/config"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// Role names resolvable for a user.
type Role string

const (
	RoleUser               Role = "user"
	RoleAdmin              Role = "admin"
	RoleAdminVpn           Role = "adminVpn"
	RoleAdminScep          Role = "adminScep"
	RoleSmartems           Role = "smartems"
	RoleVpn                Role = "vpn"
	RoleVpnEndpointDevices Role = "vpnEndpointDevices"
	RoleUpload             Role = "upload"
	RoleDevice             Role = "device"
	RoleRadiusUser         Role = "radiusUser"
	RoleSsoUser            Role = "ssoUser"

	// Gating pseudo-roles: when one of these applies it is the only role
	// the user holds.
	RoleChangePasswordRequired Role = "changePasswordRequired"
	RoleTotpRequired           Role = "totpRequired"
)

// Docs roles mirror normal roles for OpenAPI schema generation on the doc
// routes. They carry no access whatsoever.
type DocsRole string

const (
	DocsAdmin     DocsRole = "docsAdmin"
	DocsAdminVpn  DocsRole = "docsAdminVpn"
	DocsAdminScep DocsRole = "docsAdminScep"
	DocsSmartems  DocsRole = "docsSmartems"
	DocsVpn       DocsRole = "docsVpn"
)

// Roles resolves role names for a user against one config snapshot.
type Roles struct {
	db  *gorm.DB
	cfg config.Snapshot
}

func NewRoles(db *gorm.DB, cfg config.Snapshot) *Roles {
	return &Roles{db: db, cfg: cfg}
}

// Has resolves a role for the user. Gating precedence: an expired password
// leaves only changePasswordRequired; a pending TOTP challenge leaves only
// totpRequired; maintenance mode strips every non-admin role except device.
func (r *Roles) Has(user *model.User, role Role) bool {
	if user == nil {
		return false
	}

	if role == RoleUser {
		return true
	}
	if role == RoleRadiusUser {
		return user.RadiusUser
	}
	if role == RoleSsoUser {
		return user.SsoUser
	}

	if role == RoleChangePasswordRequired && user.PasswordExpired {
		return true
	}
	// When password change is required the user has no other roles.
	if user.PasswordExpired {
		return false
	}

	totpRequired := user.TotpRequired && r.totpEnabledFor(user)
	if role == RoleTotpRequired && totpRequired {
		return true
	}
	// When TOTP is required the user has no other roles.
	if totpRequired {
		return false
	}

	// Devices keep communicating even in maintenance mode; the controller
	// layer shapes their responses.
	if role == RoleDevice {
		return user.RoleDevice || user.RoleDeviceSecretCredential || user.RoleDeviceX509Credential
	}

	if r.cfg.MaintenanceMode && !user.RoleAdmin {
		return false
	}

	switch role {
	case RoleAdmin:
		return user.RoleAdmin
	case RoleAdminVpn:
		return user.RoleAdmin && !r.cfg.VpnSuiteBlocked
	case RoleAdminScep:
		return user.RoleAdmin && !r.cfg.ScepBlocked
	case RoleSmartems:
		return user.RoleSmartems
	case RoleVpn:
		return user.RoleVpn && !r.cfg.VpnSuiteBlocked
	case RoleVpnEndpointDevices:
		return user.RoleVpn && user.RoleVpnEndpointDevices && !r.cfg.VpnSuiteBlocked
	case RoleUpload:
		return user.RoleSmartems || user.RoleAdmin
	}

	return false
}

func (r *Roles) totpEnabledFor(user *model.User) bool {
	return r.cfg.TotpEnabled && user.TotpSecret != ""
}

// DeviceTypeAccess is the typed capability record behind the dynamic
// per-device-type roles.
type DeviceTypeAccess struct {
	DeviceType *model.DeviceType
	Granted    bool
}

// ResolveDeviceTypeAccess decides whether the user may talk to devices of
// the given type. The device type must be available; beyond that access is
// granted by the type's authentication method being open, by a matching
// credential-source role, or by the generic device role plus an explicit
// per-type grant record.
func (r *Roles) ResolveDeviceTypeAccess(user *model.User, deviceTypeID uint) (DeviceTypeAccess, error) {
	var deviceType model.DeviceType
	err := r.db.Preload("CertificateTypes").First(&deviceType, deviceTypeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeviceTypeAccess{}, nil
		}
		return DeviceTypeAccess{}, err
	}

	access := DeviceTypeAccess{DeviceType: &deviceType}
	if !deviceType.Enabled {
		return access, nil
	}

	if deviceType.AuthenticationMethod == model.AuthenticationNone {
		access.Granted = true
		return access, nil
	}

	if user == nil {
		return access, nil
	}

	switch deviceType.AuthenticationMethod {
	case model.AuthenticationBasic, model.AuthenticationDigest:
		if user.RoleDeviceSecretCredential && credentialsFromSecret(deviceType.CredentialsSource) {
			access.Granted = true
			return access, nil
		}
	case model.AuthenticationX509:
		if user.RoleDeviceX509Credential && deviceType.HasX509CertificateTypeCredential() {
			access.Granted = true
			return access, nil
		}
	}

	if !user.RoleDevice {
		return access, nil
	}

	var grant model.UserDeviceType
	err = r.db.Where("user_id = ? AND device_type_id = ?", user.ID, deviceType.ID).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return access, nil
		}
		return DeviceTypeAccess{}, err
	}

	access.Granted = true
	return access, nil
}

func credentialsFromSecret(source model.CredentialsSource) bool {
	switch source {
	case model.CredentialsSecret, model.CredentialsUserIfSecretMissing, model.CredentialsBoth:
		return true
	}
	return false
}

// HasDocsRole resolves documentation-mirroring roles by request path. These
// exist only so conditional parts of the OpenAPI schema render on the right
// doc routes; they must never be treated as a capability grant.
func (r *Roles) HasDocsRole(role DocsRole, path string) bool {
	switch role {
	case DocsAdminVpn, DocsVpn:
		if r.cfg.VpnSuiteBlocked {
			return false
		}
	case DocsAdminScep:
		if r.cfg.ScepBlocked {
			return false
		}
	}

	var supported []string
	switch role {
	case DocsAdmin, DocsAdminVpn, DocsAdminScep, DocsVpn:
		supported = []string{"/web/doc/vpnsecuritysuite", "/web/doc/smartemsvpnsecuritysuite"}
	case DocsSmartems:
		supported = []string{"/web/doc/smartems", "/web/doc/smartemsvpnsecuritysuite"}
	default:
		return false
	}

	for _, route := range supported {
		if path == route || path == route+".yaml" {
			return true
		}
	}
	return false
}

// IsDocsPath reports whether the path belongs to the documentation surface.
func IsDocsPath(path string) bool {
	return strings.HasPrefix(path, "/web/doc/")
}
