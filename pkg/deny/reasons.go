package deny

// Reason codes returned by the resolvers. The last dot-separated segment is
// a translatable message key; the presentation layer maps codes to text and
// must never see free-form messages here.
const (
	ReasonAccessDenied = "accessDenied"

	// Entity state.
	ReasonAlreadyEnabled  = "alreadyEnabled"
	ReasonAlreadyDisabled = "alreadyDisabled"

	// Device type capabilities.
	ReasonVariablesDisabled         = "variablesDisabled"
	ReasonTemplatesDisabled         = "templatesDisabled"
	ReasonConfig1Disabled           = "config1Disabled"
	ReasonConfig2Disabled           = "config2Disabled"
	ReasonConfig3Disabled           = "config3Disabled"
	ReasonNoConfigCapability        = "deviceTypeHasNoConfigCapability"
	ReasonNoCommunicationCapability = "deviceTypeHasNoCommunicationCapability"
	ReasonNoDeviceCommandsCapability = "deviceTypeHasNoDeviceCommandsCapability"
	ReasonNoRequestDiagnoseCapability = "deviceTypeHasNoRequestDiagnoseCapability"
	ReasonNoVpnCapability           = "deviceTypeHasNoVpnCapability"
	ReasonDisabledInDeviceType      = "disabledInDeviceType"
	ReasonCannotEnable              = "cannotEnable"

	// Device template/config state.
	ReasonTemplateMissing        = "templateMissing"
	ReasonTemplateVersionMissing = "templateVersionMissing"
	ReasonConfig1Missing         = "config1Missing"
	ReasonConfig2Missing         = "config2Missing"
	ReasonConfig3Missing         = "config3Missing"

	// VPN lifecycle.
	ReasonVpnSuiteBlocked       = "vpnSecuritySuiteBlocked"
	ReasonVpnSuiteInvalidConfig = "vpnSecuritySuiteInvalidConfiguration"
	ReasonNoVpnIp               = "noVpnIp"
	ReasonNoPhysicalIp          = "noPhysicalIp"
	ReasonNotConnectedToVpn     = "notConnectedToVpn"
	ReasonUserNotConnectedToVpn = "userNotConnectedToVpn"
	ReasonAlreadyConnected      = "alreadyConnected"
	ReasonConnectionNotAvailable = "connectionNotAvailable"

	// Certificates.
	ReasonNoCertificate              = "noCertificate"
	ReasonNoCaCertificate            = "noCaCertificate"
	ReasonNoPrivateKey               = "noPrivateKey"
	ReasonHasCertificate             = "hasCertificate"
	ReasonPkiGeneratedCertificate    = "pkiGeneratedCertificate"
	ReasonNotPkiGeneratedCertificate = "notPkiGeneratedCertificate"
	ReasonRoleNotSupported           = "roleNotSupported"
	ReasonCertificateTypeNotApplicable = "certificateTypeNotApplicable"

	// Certificate type availability.
	ReasonDisabled                 = "disabled"
	ReasonVpnLicenseRequired       = "vpnLicenseRequired"
	ReasonScepLicenseRequired      = "scepLicenseRequired"
	ReasonInvalidScepConfiguration = "invalidScepConfiguration"

	// Users.
	ReasonNotAvailableForRadiusUser = "notAvailableForRadiusUser"
	ReasonNotAvailableForSsoUser    = "notAvailableForSsoUser"
	ReasonCurrentlyLoggedIn         = "currentlyLoggedIn"
	ReasonCannotDisableYourself     = "cannotDisableYourself"
	ReasonCannotDeleteYourself      = "cannotDeleteYourself"
	ReasonTotpDisabled              = "totpDisabled"
	ReasonTotpSecretEmpty           = "totpSecretEmpty"
	ReasonFailedLoginAttemptsDisabled        = "failedLoginAttemptsDisabled"
	ReasonFailedLoginAttemptsNotAvailable    = "failedLoginAttemptsNotAvailableForUser"
	ReasonTooManyFailedLoginAttemptsFalse    = "tooManyFailedLoginAttemptsFalse"

	// Device secrets.
	ReasonDeviceSecretExists       = "deviceSecretExists"
	ReasonDeviceSecretDoesNotExist = "deviceSecretDoesNotExist"

	// Templates and components.
	ReasonAccessDeniedNotOwned            = "accessDeniedNotOwned"
	ReasonAccessDeniedDeviceOutsideScope  = "accessDeniedDeviceOutsideAccessScope"
	ReasonAlreadySelectedStaging          = "alreadySelectedStaging"
	ReasonAlreadySelectedProduction       = "alreadySelectedProduction"
	ReasonSelectStagingNotTypeStaging     = "selectStagingNotTypeStaging"
	ReasonNotSelectedStagingAndNotTypeProduction = "notSelectedStagingAndNotTypeProduction"
	ReasonNotSelectedStaging              = "notSelectedStaging"
	ReasonNotSelectedProduction           = "notSelectedProduction"
	ReasonSelectedStaging                 = "selectedStaging"
	ReasonSelectedProduction              = "selectedProduction"
	ReasonProductionEditDisabled          = "productionEditDisabled"

	// Used-by chains (prefixed with the action, e.g. "delete.usedByDevice").
	ReasonUsedByDevice           = "usedByDevice"
	ReasonUsedByTemplate         = "usedByTemplate"
	ReasonUsedByConfig           = "usedByConfig"
	ReasonUsedByFirmware         = "usedByFirmware"
	ReasonUsedByDeviceTypeSecret = "usedByDeviceTypeSecret"
	ReasonLimitedEdit            = "limitedEdit"
)
