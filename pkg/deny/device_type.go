package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// Device type actions.
const (
	DeviceTypeActionEnable      = "enable"
	DeviceTypeActionDisable     = "disable"
	DeviceTypeActionEdit        = "edit"
	DeviceTypeActionLimitedEdit = "limitedEdit"
	DeviceTypeActionDelete      = "delete"
	DeviceTypeActionDuplicate   = "duplicate"
)

// deviceTypeValid reports whether the capability surface is consistent with
// the communication procedure, which is required before enabling.
func deviceTypeValid(t *model.DeviceType) bool {
	switch t.CommunicationProcedure {
	case model.CommunicationNoneScep:
		return t.HasCertificates
	case model.CommunicationNoneVpn, model.CommunicationEdgeVpn:
		return t.IsVpnAvailable
	default:
		return true
	}
}

func (r *Resolver) DeviceTypeEnableDeny(t *model.DeviceType) string {
	if t.Enabled {
		return ReasonAlreadyEnabled
	}
	if !deviceTypeValid(t) {
		return ReasonCannotEnable
	}
	return ""
}

func (r *Resolver) DeviceTypeDisableDeny(t *model.DeviceType) string {
	if !t.Enabled {
		return ReasonAlreadyDisabled
	}
	return ""
}

// deviceTypeUsedDeny walks the reverse relations and names the first kind
// of dependent record. Relations must be preloaded.
func deviceTypeUsedDeny(t *model.DeviceType) string {
	if len(t.Devices) > 0 {
		return ReasonUsedByDevice
	}
	if len(t.TemplateVersions) > 0 || len(t.Templates) > 0 {
		return ReasonUsedByTemplate
	}
	if len(t.Configs) > 0 {
		return ReasonUsedByConfig
	}
	if len(t.Firmwares) > 0 {
		return ReasonUsedByFirmware
	}
	if len(t.DeviceTypeSecrets) > 0 {
		return ReasonUsedByDeviceTypeSecret
	}
	return ""
}

func (r *Resolver) DeviceTypeDeleteDeny(t *model.DeviceType) string {
	if used := deviceTypeUsedDeny(t); used != "" {
		return "delete." + used
	}
	return ""
}

func (r *Resolver) DeviceTypeEditDeny(t *model.DeviceType) string {
	if used := deviceTypeUsedDeny(t); used != "" {
		return "edit." + used
	}
	return ""
}

// DeviceTypeLimitedEditDeny is the inverse of the full edit: the limited
// form only applies while the type is in use.
func (r *Resolver) DeviceTypeLimitedEditDeny(t *model.DeviceType) string {
	if deviceTypeUsedDeny(t) == "" {
		return ReasonLimitedEdit
	}
	return ""
}

func (r *Resolver) DeviceTypeDuplicateDeny(t *model.DeviceType) string {
	return ""
}

// FillDeviceTypeDeny computes the verdict over the device type action set.
func (r *Resolver) FillDeviceTypeDeny(t *model.DeviceType) model.Verdict {
	return model.Verdict{
		DeviceTypeActionEnable:      r.DeviceTypeEnableDeny(t),
		DeviceTypeActionDisable:     r.DeviceTypeDisableDeny(t),
		DeviceTypeActionEdit:        r.DeviceTypeEditDeny(t),
		DeviceTypeActionLimitedEdit: r.DeviceTypeLimitedEditDeny(t),
		DeviceTypeActionDelete:      r.DeviceTypeDeleteDeny(t),
		DeviceTypeActionDuplicate:   r.DeviceTypeDuplicateDeny(t),
	}
}
