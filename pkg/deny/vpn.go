package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

// VPN lifecycle actions shared by devices and endpoint devices.
const (
	VpnActionOpenConnection  = "vpnOpenConnection"
	VpnActionCloseConnection = "vpnCloseConnection"
)

// VpnOpenConnectionDeny guards the open transition for a device or endpoint
// device target. The alreadyConnected check here is advisory; the lifecycle
// re-checks uniqueness inside the writing transaction.
func (r *Resolver) VpnOpenConnectionDeny(target any) string {
	if r.cfg.VpnSuiteBlocked {
		return ReasonVpnSuiteBlocked
	}
	if !r.cfg.VpnSuiteAvailable() {
		return ReasonVpnSuiteInvalidConfig
	}

	if !r.isGranted(security.RoleAdminVpn) && !r.isGranted(security.RoleVpn) {
		return ReasonAccessDenied
	}

	var parent *model.Device
	var endpoint *model.DeviceEndpointDevice

	switch o := target.(type) {
	case *model.Device:
		parent = o
		// Plain VPN users are scoped to their tags for direct device
		// targets. Endpoint devices carry their own visibility and are
		// exempt here.
		if r.isGranted(security.RoleVpn) && !r.userIntersectsTags(o.AccessTags) {
			return ReasonAccessDenied
		}
	case *model.DeviceEndpointDevice:
		endpoint = o
		parent = o.Device
	default:
		return ReasonAccessDenied
	}

	if parent == nil || parent.DeviceType == nil || !parent.DeviceType.IsVpnAvailable {
		return ReasonDisabledInDeviceType
	}

	certificate := r.deviceVpnCertificate(parent)
	if certificate == nil || !certificate.HasCertificate() {
		return ReasonNoCertificate
	}

	if parent.VpnIp == "" {
		return ReasonNoVpnIp
	}
	if endpoint != nil && endpoint.PhysicalIp == "" {
		return ReasonNoPhysicalIp
	}

	if !parent.VpnConnected {
		return ReasonNotConnectedToVpn
	}
	if r.user == nil || !r.user.VpnConnected {
		return ReasonUserNotConnectedToVpn
	}

	if endpoint != nil {
		for _, connection := range endpoint.VpnConnections {
			if connection.UserID == r.user.ID && connection.TargetsEndpointDevice(endpoint.ID) {
				return ReasonAlreadyConnected
			}
		}
	} else {
		for _, connection := range parent.VpnConnections {
			if connection.UserID == r.user.ID && connection.TargetsDevice(parent.ID) {
				return ReasonAlreadyConnected
			}
		}
	}

	return ""
}

// VpnCloseConnectionDeny guards the close transition. For a VpnConnection
// target the decision is per-connection; for a device or endpoint device it
// asks whether any closable connection exists at all. Admins may close any
// non-permanent connection regardless of ownership.
func (r *Resolver) VpnCloseConnectionDeny(target any) string {
	if !r.isGranted(security.RoleAdminVpn) && !r.isGranted(security.RoleVpn) {
		return ReasonAccessDenied
	}

	switch o := target.(type) {
	case *model.VpnConnection:
		if !r.isGranted(security.RoleAdminVpn) {
			if r.user == nil || o.UserID != r.user.ID {
				return ReasonAccessDenied
			}
		}
		if o.Permanent {
			return ReasonConnectionNotAvailable
		}
		return r.vpnSuiteStateDeny()

	case *model.Device:
		if o.DeviceType == nil || !o.DeviceType.IsVpnAvailable {
			return ReasonDisabledInDeviceType
		}
		if reason := r.closableConnectionDeny(o.VpnConnections, func(c *model.VpnConnection) bool {
			return c.TargetsDevice(o.ID)
		}); reason != "" {
			return reason
		}
		return r.vpnSuiteStateDeny()

	case *model.DeviceEndpointDevice:
		if reason := r.closableConnectionDeny(o.VpnConnections, func(c *model.VpnConnection) bool {
			return c.TargetsEndpointDevice(o.ID)
		}); reason != "" {
			return reason
		}
		return r.vpnSuiteStateDeny()

	default:
		return ReasonAccessDenied
	}
}

func (r *Resolver) vpnSuiteStateDeny() string {
	if r.cfg.VpnSuiteBlocked {
		return ReasonVpnSuiteBlocked
	}
	if !r.cfg.VpnSuiteAvailable() {
		return ReasonVpnSuiteInvalidConfig
	}
	return ""
}

// closableConnectionDeny scans the target's connections for at least one
// the acting user may close: non-permanent, and owned by the user unless
// they hold the admin VPN role.
func (r *Resolver) closableConnectionDeny(connections []model.VpnConnection, targets func(*model.VpnConnection) bool) string {
	if len(connections) == 0 {
		return ReasonConnectionNotAvailable
	}

	admin := r.isGranted(security.RoleAdminVpn)
	for i := range connections {
		connection := &connections[i]
		if connection.Permanent {
			continue
		}
		if !targets(connection) {
			continue
		}
		if admin || (r.user != nil && connection.UserID == r.user.ID) {
			return ""
		}
	}
	return ReasonConnectionNotAvailable
}

// DeviceDownloadVpnConfigDeny guards the VPN profile download for a device.
func (r *Resolver) DeviceDownloadVpnConfigDeny(d *model.Device) string {
	if r.cfg.VpnSuiteBlocked {
		return ReasonVpnSuiteBlocked
	}
	if !r.cfg.VpnSuiteAvailable() {
		return ReasonVpnSuiteInvalidConfig
	}
	if !r.isGranted(security.RoleAdminVpn) && !r.isGranted(security.RoleVpn) {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.IsVpnAvailable {
		return ReasonDisabledInDeviceType
	}
	certificate := r.deviceVpnCertificate(d)
	if certificate == nil || !certificate.HasCertificate() {
		return ReasonNoCertificate
	}
	if d.VpnIp == "" {
		return ReasonNoVpnIp
	}
	return ""
}

// UserDownloadVpnConfigDeny guards the technician VPN profile download.
// Users may fetch their own profile; the admin VPN role may fetch anyone's.
func (r *Resolver) UserDownloadVpnConfigDeny(u *model.User) string {
	if r.cfg.VpnSuiteBlocked {
		return ReasonVpnSuiteBlocked
	}
	if !r.cfg.VpnSuiteAvailable() {
		return ReasonVpnSuiteInvalidConfig
	}
	if !r.isGranted(security.RoleAdminVpn) && !r.isCurrentUser(u) {
		return ReasonAccessDenied
	}
	if !u.RoleAdmin && !u.RoleVpn {
		return ReasonRoleNotSupported
	}
	certificate := r.technicianVpnCertificate(u)
	if certificate == nil || !certificate.HasCertificate() {
		return ReasonNoCertificate
	}
	return ""
}
