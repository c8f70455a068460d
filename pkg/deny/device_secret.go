package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

// Device secret actions.
const (
	DeviceSecretActionGet                = "get"
	DeviceSecretActionDelete             = "delete"
	DeviceSecretActionCreate             = "create"
	DeviceSecretActionEdit               = "edit"
	DeviceSecretActionShow               = "show"
	DeviceSecretActionShowVariables      = "showVariables"
	DeviceSecretActionClear              = "clear"
	DeviceSecretActionEnableForceRenewal  = "enableForceRenewal"
	DeviceSecretActionDisableForceRenewal = "disableForceRenewal"
)

// deviceSecretAccessDeny is the shared access check: admins pass, other
// actors need the smartems or vpn role plus tag intersection with both the
// device and the device type secret.
func (r *Resolver) deviceSecretAccessDeny(s *model.DeviceSecret) string {
	if r.isGranted(security.RoleAdmin) {
		return ""
	}

	if !r.isGranted(security.RoleSmartems) && !r.isGranted(security.RoleVpn) {
		return ReasonAccessDenied
	}

	// A secret without its relationships is malformed; fail closed.
	if s.Device == nil || s.DeviceTypeSecret == nil {
		return ReasonAccessDenied
	}

	if !r.isAllDevicesGranted() {
		if !r.userIntersectsTags(s.Device.AccessTags) {
			return ReasonAccessDenied
		}
	}

	if !r.userIntersectsTags(s.DeviceTypeSecret.AccessTags) {
		return ReasonAccessDenied
	}

	return ""
}

// DeviceSecretGetDeny: secrets are never fetched individually.
func (r *Resolver) DeviceSecretGetDeny(s *model.DeviceSecret) string {
	return ReasonAccessDenied
}

// DeviceSecretDeleteDeny: secrets are cleared, never deleted.
func (r *Resolver) DeviceSecretDeleteDeny(s *model.DeviceSecret) string {
	return ReasonAccessDenied
}

func (r *Resolver) DeviceSecretShowDeny(s *model.DeviceSecret) string {
	if s.ID == 0 {
		return ReasonAccessDenied
	}
	return r.deviceSecretAccessDeny(s)
}

// DeviceSecretShowVariablesDeny applies to secret slots not yet persisted
// for the device.
func (r *Resolver) DeviceSecretShowVariablesDeny(s *model.DeviceSecret) string {
	if s.ID != 0 {
		return ReasonAccessDenied
	}
	return r.deviceSecretAccessDeny(s)
}

func (r *Resolver) DeviceSecretCreateDeny(s *model.DeviceSecret) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if s.ID != 0 {
		return ReasonDeviceSecretExists
	}
	if reason := r.deviceSecretAccessDeny(s); reason != "" {
		return reason
	}
	if s.DeviceTypeSecret == nil || !s.DeviceTypeSecret.ManualEdit {
		return ReasonAccessDenied
	}
	return ""
}

func (r *Resolver) DeviceSecretEditDeny(s *model.DeviceSecret) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if s.ID == 0 {
		return ReasonDeviceSecretDoesNotExist
	}
	if reason := r.deviceSecretAccessDeny(s); reason != "" {
		return reason
	}
	if s.DeviceTypeSecret == nil || !s.DeviceTypeSecret.ManualEdit {
		return ReasonAccessDenied
	}
	return ""
}

func (r *Resolver) DeviceSecretClearDeny(s *model.DeviceSecret) string {
	return r.DeviceSecretEditDeny(s)
}

func (r *Resolver) deviceSecretForceRenewalDeny(s *model.DeviceSecret, enable bool) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if s.ID == 0 {
		return ReasonDeviceSecretDoesNotExist
	}
	if reason := r.deviceSecretAccessDeny(s); reason != "" {
		return reason
	}

	slot := s.DeviceTypeSecret
	if slot == nil || !slot.UseAsVariable || !slot.ManualForceRenewal {
		return ReasonAccessDenied
	}
	if slot.SecretValueBehaviour == model.SecretValueNone {
		return ReasonAccessDenied
	}
	if s.ForceRenewal == enable {
		return ReasonAccessDenied
	}
	return ""
}

func (r *Resolver) DeviceSecretEnableForceRenewalDeny(s *model.DeviceSecret) string {
	return r.deviceSecretForceRenewalDeny(s, true)
}

func (r *Resolver) DeviceSecretDisableForceRenewalDeny(s *model.DeviceSecret) string {
	return r.deviceSecretForceRenewalDeny(s, false)
}

// FillDeviceSecretDeny computes the verdict over the device secret action set.
func (r *Resolver) FillDeviceSecretDeny(s *model.DeviceSecret) model.Verdict {
	return model.Verdict{
		DeviceSecretActionGet:                r.DeviceSecretGetDeny(s),
		DeviceSecretActionDelete:             r.DeviceSecretDeleteDeny(s),
		DeviceSecretActionCreate:             r.DeviceSecretCreateDeny(s),
		DeviceSecretActionEdit:               r.DeviceSecretEditDeny(s),
		DeviceSecretActionShow:               r.DeviceSecretShowDeny(s),
		DeviceSecretActionShowVariables:      r.DeviceSecretShowVariablesDeny(s),
		DeviceSecretActionClear:              r.DeviceSecretClearDeny(s),
		DeviceSecretActionEnableForceRenewal:  r.DeviceSecretEnableForceRenewalDeny(s),
		DeviceSecretActionDisableForceRenewal: r.DeviceSecretDisableForceRenewalDeny(s),
	}
}
