package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

// Device actions.
const (
	DeviceActionEnable                  = "enable"
	DeviceActionDisable                 = "disable"
	DeviceActionVariableAdd             = "variableAdd"
	DeviceActionVariableDelete          = "variableDelete"
	DeviceActionTemplateApply           = "templateApply"
	DeviceActionGenerateConfigPrimary   = "generateConfigPrimary"
	DeviceActionGenerateConfigSecondary = "generateConfigSecondary"
	DeviceActionGenerateConfigTertiary  = "generateConfigTertiary"
	DeviceActionBatchReinstallConfig    = "batchReinstallConfig"
	DeviceActionBatchReinstallFirmware  = "batchReinstallFirmware"
	DeviceActionBatchRequestDiagnose    = "batchRequestDiagnose"
	DeviceActionBatchRequestConfig      = "batchRequestConfig"
	DeviceActionAccessTagAdd            = "accessTagAdd"
	DeviceActionAccessTagDelete         = "accessTagDelete"
	DeviceActionPredefinedVariables     = "predefinedVariables"
	DeviceActionLogs                    = "logs"
	DeviceActionCommunicationLogs       = "communicationLogs"
	DeviceActionDeviceCommands          = "deviceCommands"
	DeviceActionDiagnoseLogs            = "diagnoseLogs"
	DeviceActionConfigLogs              = "configLogs"
	DeviceActionVpnLogs                 = "vpnLogs"
	DeviceActionSecretLogs              = "secretLogs"
	DeviceActionVpnActions              = "vpnActions"
	DeviceActionShowConfigExpand        = "showConfigExpand"
	DeviceActionEdit                    = "edit"
	DeviceActionDuplicate               = "duplicate"
	DeviceActionDelete                  = "delete"
	DeviceActionCertificateType         = "certificateType"
	DeviceActionDownloadVpnConfig       = "downloadVpnConfig"
)

func (r *Resolver) DeviceEnableDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if d.Enabled {
		return ReasonAlreadyEnabled
	}
	return ""
}

func (r *Resolver) DeviceDisableDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if !d.Enabled {
		return ReasonAlreadyDisabled
	}
	return ""
}

func (r *Resolver) DeviceVariableAddDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.HasVariables {
		return ReasonVariablesDisabled
	}
	return ""
}

func (r *Resolver) DeviceVariableDeleteDeny(d *model.Device) string {
	return r.DeviceVariableAddDeny(d)
}

func (r *Resolver) DeviceTemplateApplyDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.HasTemplates {
		return ReasonTemplatesDisabled
	}
	return ""
}

func (r *Resolver) deviceGenerateConfigDeny(d *model.Device, feature model.Feature) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}

	deviceType := d.DeviceType
	if deviceType == nil || !deviceType.HasTemplates {
		return ReasonTemplatesDisabled
	}

	if !deviceType.HasConfig(feature) {
		switch feature {
		case model.FeaturePrimary:
			return ReasonConfig1Disabled
		case model.FeatureSecondary:
			return ReasonConfig2Disabled
		default:
			return ReasonConfig3Disabled
		}
	}

	if d.TemplateID == nil {
		return ReasonTemplateMissing
	}
	if d.TemplateVersionID == nil || d.TemplateVersion == nil {
		return ReasonTemplateVersionMissing
	}

	if !d.TemplateVersion.HasConfig(feature) {
		switch feature {
		case model.FeaturePrimary:
			return ReasonConfig1Missing
		case model.FeatureSecondary:
			return ReasonConfig2Missing
		default:
			return ReasonConfig3Missing
		}
	}

	return ""
}

func (r *Resolver) DeviceGenerateConfigPrimaryDeny(d *model.Device) string {
	return r.deviceGenerateConfigDeny(d, model.FeaturePrimary)
}

func (r *Resolver) DeviceGenerateConfigSecondaryDeny(d *model.Device) string {
	return r.deviceGenerateConfigDeny(d, model.FeatureSecondary)
}

func (r *Resolver) DeviceGenerateConfigTertiaryDeny(d *model.Device) string {
	return r.deviceGenerateConfigDeny(d, model.FeatureTertiary)
}

// deviceBatchActionDeny covers the batch actions whose device-type checks
// happen in the controller, since a batch spans multiple device types.
func (r *Resolver) deviceBatchActionDeny() string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	return ""
}

func (r *Resolver) DeviceShowConfigExpandDeny(d *model.Device) string {
	if d.DeviceType == nil || !d.DeviceType.HasTemplates {
		return ReasonTemplatesDisabled
	}
	if !d.DeviceType.HasAnyConfig() {
		return ReasonNoConfigCapability
	}
	return ""
}

// DeviceLogsDeny permits the aggregated logs view when any specific log
// category is accessible.
func (r *Resolver) DeviceLogsDeny(d *model.Device) string {
	if r.DeviceCommunicationLogsDeny(d) != "" &&
		r.DeviceCommandsDeny(d) != "" &&
		r.DeviceDiagnoseLogsDeny(d) != "" &&
		r.DeviceConfigLogsDeny(d) != "" &&
		r.DeviceSecretLogsDeny(d) != "" &&
		r.DeviceVpnLogsDeny(d) != "" {
		return ReasonAccessDenied
	}
	return ""
}

func (r *Resolver) DeviceCommunicationLogsDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.CommunicationProcedure.Communicates() {
		return ReasonNoCommunicationCapability
	}
	return ""
}

func (r *Resolver) DeviceCommandsDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.HasDeviceCommands {
		return ReasonNoDeviceCommandsCapability
	}
	return ""
}

func (r *Resolver) DeviceDiagnoseLogsDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.HasRequestDiagnose {
		return ReasonNoRequestDiagnoseCapability
	}
	return ""
}

func (r *Resolver) DeviceConfigLogsDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.HasAnyConfig() {
		return ReasonNoConfigCapability
	}
	return ""
}

func (r *Resolver) DeviceVpnLogsDeny(d *model.Device) string {
	if !r.isGranted(security.RoleAdminVpn) && !r.isGranted(security.RoleAdminScep) && !r.isGranted(security.RoleVpn) {
		return ReasonAccessDenied
	}
	// SCEP certificate handling writes VPN logs too.
	if d.DeviceType == nil || (!d.DeviceType.IsVpnAvailable && !d.DeviceType.HasCertificates) {
		return ReasonNoVpnCapability
	}
	return ""
}

func (r *Resolver) DeviceSecretLogsDeny(d *model.Device) string {
	if !r.isGranted(security.RoleAdmin) {
		return ReasonAccessDenied
	}
	return ""
}

// DeviceEditDeny requires tag intersection for scoped actors. A VPN user
// can see a device through one of its endpoint devices without having
// access to the device itself; editing still requires direct access.
func (r *Resolver) DeviceEditDeny(d *model.Device) string {
	if !r.isAllDevicesGranted() {
		if !r.userIntersectsTags(d.AccessTags) {
			return ReasonAccessDenied
		}
	}
	return ""
}

func (r *Resolver) DeviceVpnActionsDeny(d *model.Device) string {
	if !r.isGranted(security.RoleAdminVpn) && !r.isGranted(security.RoleVpn) {
		return ReasonAccessDenied
	}
	if d.DeviceType == nil || !d.DeviceType.IsVpnAvailable {
		return ReasonNoVpnCapability
	}
	return ""
}

func (r *Resolver) DeviceDuplicateDeny(d *model.Device) string {
	if !r.isAdminOrSmartems() {
		return ReasonAccessDenied
	}
	return ""
}

func (r *Resolver) DeviceDeleteDeny(d *model.Device) string {
	if !r.isGranted(security.RoleAdmin) {
		return ReasonAccessDenied
	}
	return ""
}

// FillDeviceDeny computes the verdict over the full device action set.
func (r *Resolver) FillDeviceDeny(d *model.Device) model.Verdict {
	return model.Verdict{
		DeviceActionEnable:                  r.DeviceEnableDeny(d),
		DeviceActionDisable:                 r.DeviceDisableDeny(d),
		DeviceActionVariableAdd:             r.DeviceVariableAddDeny(d),
		DeviceActionVariableDelete:          r.DeviceVariableDeleteDeny(d),
		DeviceActionTemplateApply:           r.DeviceTemplateApplyDeny(d),
		DeviceActionGenerateConfigPrimary:   r.DeviceGenerateConfigPrimaryDeny(d),
		DeviceActionGenerateConfigSecondary: r.DeviceGenerateConfigSecondaryDeny(d),
		DeviceActionGenerateConfigTertiary:  r.DeviceGenerateConfigTertiaryDeny(d),
		DeviceActionBatchReinstallConfig:    r.deviceBatchActionDeny(),
		DeviceActionBatchReinstallFirmware:  r.deviceBatchActionDeny(),
		DeviceActionBatchRequestDiagnose:    r.deviceBatchActionDeny(),
		DeviceActionBatchRequestConfig:      r.deviceBatchActionDeny(),
		DeviceActionAccessTagAdd:            r.deviceBatchActionDeny(),
		DeviceActionAccessTagDelete:         r.deviceBatchActionDeny(),
		DeviceActionPredefinedVariables:     r.deviceBatchActionDeny(),
		DeviceActionLogs:                    r.DeviceLogsDeny(d),
		DeviceActionCommunicationLogs:       r.DeviceCommunicationLogsDeny(d),
		DeviceActionDeviceCommands:          r.DeviceCommandsDeny(d),
		DeviceActionDiagnoseLogs:            r.DeviceDiagnoseLogsDeny(d),
		DeviceActionConfigLogs:              r.DeviceConfigLogsDeny(d),
		DeviceActionVpnLogs:                 r.DeviceVpnLogsDeny(d),
		DeviceActionSecretLogs:              r.DeviceSecretLogsDeny(d),
		DeviceActionVpnActions:              r.DeviceVpnActionsDeny(d),
		DeviceActionShowConfigExpand:        r.DeviceShowConfigExpandDeny(d),
		DeviceActionEdit:                    r.DeviceEditDeny(d),
		DeviceActionDuplicate:               r.DeviceDuplicateDeny(d),
		DeviceActionDelete:                  r.DeviceDeleteDeny(d),
		DeviceActionCertificateType:         r.CertificateTypeDeny(d),
		DeviceActionDownloadVpnConfig:       r.DeviceDownloadVpnConfigDeny(d),
		VpnActionOpenConnection:             r.VpnOpenConnectionDeny(d),
		VpnActionCloseConnection:            r.VpnCloseConnectionDeny(d),
	}
}

// FillEndpointDeviceDeny computes the verdict for an endpoint device, whose
// action surface is the VPN lifecycle only.
func (r *Resolver) FillEndpointDeviceDeny(e *model.DeviceEndpointDevice) model.Verdict {
	return model.Verdict{
		VpnActionOpenConnection:  r.VpnOpenConnectionDeny(e),
		VpnActionCloseConnection: r.VpnCloseConnectionDeny(e),
	}
}
