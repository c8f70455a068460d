package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// User actions.
const (
	UserActionEdit               = "edit"
	UserActionEnable             = "enable"
	UserActionDisable            = "disable"
	UserActionDelete             = "delete"
	UserActionChangePassword     = "changePassword"
	UserActionResetTotpSecret    = "resetTotpSecret"
	UserActionResetLoginAttempts = "resetLoginAttempts"
	UserActionCertificateType    = "certificateType"
	UserActionDownloadVpnConfig  = "downloadVpnConfig"
)

// externallyManagedDeny rejects account mutations for users whose identity
// lives in RADIUS or the SSO provider.
func externallyManagedDeny(u *model.User) string {
	if u.RadiusUser {
		return ReasonNotAvailableForRadiusUser
	}
	if u.SsoUser {
		return ReasonNotAvailableForSsoUser
	}
	return ""
}

func (r *Resolver) UserEditDeny(u *model.User) string {
	return externallyManagedDeny(u)
}

func (r *Resolver) UserChangePasswordDeny(u *model.User) string {
	if reason := externallyManagedDeny(u); reason != "" {
		return reason
	}
	// Changing the password of the session you are using goes through the
	// dedicated self-service flow instead.
	if r.isCurrentUser(u) {
		return ReasonCurrentlyLoggedIn
	}
	return ""
}

func (r *Resolver) UserResetTotpSecretDeny(u *model.User) string {
	if !r.cfg.TotpEnabled {
		return ReasonTotpDisabled
	}
	if reason := externallyManagedDeny(u); reason != "" {
		return reason
	}
	if u.TotpSecret == "" {
		return ReasonTotpSecretEmpty
	}
	return ""
}

func (r *Resolver) UserResetLoginAttemptsDeny(u *model.User) string {
	if !r.cfg.FailedLoginAttemptsEnabled {
		return ReasonFailedLoginAttemptsDisabled
	}
	if u.RadiusUser || u.SsoUser {
		return ReasonFailedLoginAttemptsNotAvailable
	}
	if !u.TooManyFailedLoginAttempts {
		return ReasonTooManyFailedLoginAttemptsFalse
	}
	return ""
}

func (r *Resolver) UserDisableDeny(u *model.User) string {
	if !u.Enabled {
		return ReasonAlreadyDisabled
	}
	if r.isCurrentUser(u) {
		return ReasonCannotDisableYourself
	}
	return externallyManagedDeny(u)
}

func (r *Resolver) UserEnableDeny(u *model.User) string {
	if u.Enabled {
		return ReasonAlreadyEnabled
	}
	return externallyManagedDeny(u)
}

func (r *Resolver) UserDeleteDeny(u *model.User) string {
	if r.isCurrentUser(u) {
		return ReasonCannotDeleteYourself
	}
	return ""
}

// FillUserDeny computes the verdict over the full user action set.
func (r *Resolver) FillUserDeny(u *model.User) model.Verdict {
	return model.Verdict{
		UserActionEdit:               r.UserEditDeny(u),
		UserActionEnable:             r.UserEnableDeny(u),
		UserActionDisable:            r.UserDisableDeny(u),
		UserActionDelete:             r.UserDeleteDeny(u),
		UserActionChangePassword:     r.UserChangePasswordDeny(u),
		UserActionResetTotpSecret:    r.UserResetTotpSecretDeny(u),
		UserActionResetLoginAttempts: r.UserResetLoginAttemptsDeny(u),
		UserActionCertificateType:    r.CertificateTypeDeny(u),
		UserActionDownloadVpnConfig:  r.UserDownloadVpnConfigDeny(u),
	}
}
