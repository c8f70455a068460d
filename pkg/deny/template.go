package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// Template actions.
const (
	TemplateActionEdit      = "edit"
	TemplateActionDelete    = "delete"
	TemplateActionDuplicate = "duplicate"
)

// TemplateVersion actions.
const (
	TemplateVersionActionSelectStaging    = "selectStaging"
	TemplateVersionActionSelectProduction = "selectProduction"
	TemplateVersionActionDetachStaging    = "detachStaging"
	TemplateVersionActionDetachProduction = "detachProduction"
	TemplateVersionActionEdit             = "edit"
	TemplateVersionActionDelete           = "delete"
	TemplateVersionActionDuplicate        = "duplicate"
)

// createdByActingUser reports whether the acting user authored the record.
func (r *Resolver) createdByActingUser(createdByID *uint) bool {
	return r.user != nil && createdByID != nil && *createdByID == r.user.ID
}

// anyDeviceInaccessibleUsingTemplate reports whether some device using the
// template falls outside the acting user's tag scope. Devices and their
// access tags must be preloaded.
func (r *Resolver) anyDeviceInaccessibleUsingTemplate(t *model.Template) bool {
	for i := range t.Devices {
		if !r.userIntersectsTags(t.Devices[i].AccessTags) {
			return true
		}
	}
	return false
}

func (r *Resolver) anyDeviceInaccessibleUsingVersion(v *model.TemplateVersion) bool {
	if v.Template == nil {
		return false
	}
	return r.anyDeviceInaccessibleUsingTemplate(v.Template)
}

func (r *Resolver) TemplateEditDeny(t *model.Template) string {
	if !r.isAllDevicesGranted() {
		if r.anyDeviceInaccessibleUsingTemplate(t) {
			return ReasonAccessDeniedDeviceOutsideScope
		}
		if !r.createdByActingUser(t.CreatedByID) {
			return ReasonAccessDeniedNotOwned
		}
	}
	return ""
}

func (r *Resolver) TemplateDeleteDeny(t *model.Template) string {
	if !r.isAllDevicesGranted() {
		if !r.createdByActingUser(t.CreatedByID) {
			return ReasonAccessDeniedNotOwned
		}
	}
	if len(t.Devices) > 0 {
		return "delete." + ReasonUsedByDevice
	}
	return ""
}

func (r *Resolver) TemplateDuplicateDeny(t *model.Template) string {
	return ""
}

// FillTemplateDeny computes the verdict over the template action set.
func (r *Resolver) FillTemplateDeny(t *model.Template) model.Verdict {
	return model.Verdict{
		TemplateActionEdit:      r.TemplateEditDeny(t),
		TemplateActionDelete:    r.TemplateDeleteDeny(t),
		TemplateActionDuplicate: r.TemplateDuplicateDeny(t),
	}
}

// versionOwnershipDeny is the shared select-staging/production ownership
// guard: scoped users may only move versions they authored, unless the
// version is already one of the template's selected versions.
func (r *Resolver) versionOwnershipDeny(t *model.Template, v *model.TemplateVersion) string {
	if r.anyDeviceInaccessibleUsingTemplate(t) {
		return ReasonAccessDeniedDeviceOutsideScope
	}
	if !r.createdByActingUser(v.CreatedByID) && !t.IsStaging(v) && !t.IsProduction(v) {
		return ReasonAccessDeniedNotOwned
	}
	return ""
}

func (r *Resolver) TemplateVersionSelectStagingDeny(v *model.TemplateVersion) string {
	t := v.Template
	if t == nil {
		return ReasonAccessDenied
	}
	if t.IsStaging(v) {
		return ReasonAlreadySelectedStaging
	}
	if v.Type != model.TemplateVersionStaging {
		return ReasonSelectStagingNotTypeStaging
	}
	if !r.isAllDevicesGranted() {
		if reason := r.versionOwnershipDeny(t, v); reason != "" {
			return reason
		}
	}
	return ""
}

func (r *Resolver) TemplateVersionSelectProductionDeny(v *model.TemplateVersion) string {
	t := v.Template
	if t == nil {
		return ReasonAccessDenied
	}
	if t.IsProduction(v) {
		return ReasonAlreadySelectedProduction
	}

	// Either the currently selected staging version gets promoted, or a
	// version already frozen as production gets re-selected.
	isSelectedStaging := v.Type == model.TemplateVersionStaging && t.IsStaging(v)
	if !isSelectedStaging && v.Type != model.TemplateVersionProduction {
		return ReasonNotSelectedStagingAndNotTypeProduction
	}

	if !r.isAllDevicesGranted() {
		if reason := r.versionOwnershipDeny(t, v); reason != "" {
			return reason
		}
	}
	return ""
}

func (r *Resolver) TemplateVersionDetachStagingDeny(v *model.TemplateVersion) string {
	t := v.Template
	if t == nil {
		return ReasonAccessDenied
	}
	if !t.IsStaging(v) {
		return ReasonNotSelectedStaging
	}
	if !r.isAllDevicesGranted() {
		if r.anyDeviceInaccessibleUsingTemplate(t) {
			return ReasonAccessDeniedDeviceOutsideScope
		}
	}
	return ""
}

func (r *Resolver) TemplateVersionDetachProductionDeny(v *model.TemplateVersion) string {
	t := v.Template
	if t == nil {
		return ReasonAccessDenied
	}
	if !t.IsProduction(v) {
		return ReasonNotSelectedProduction
	}
	if !r.isAllDevicesGranted() {
		if r.anyDeviceInaccessibleUsingTemplate(t) {
			return ReasonAccessDeniedDeviceOutsideScope
		}
	}
	return ""
}

// TemplateVersionDuplicateDeny: every visible version may be duplicated.
func (r *Resolver) TemplateVersionDuplicateDeny(v *model.TemplateVersion) string {
	return ""
}

func (r *Resolver) TemplateVersionEditDeny(v *model.TemplateVersion) string {
	t := v.Template
	if t == nil {
		return ReasonAccessDenied
	}

	if !r.isAllDevicesGranted() {
		if r.anyDeviceInaccessibleUsingVersion(v) {
			// The template itself is out of reach; only a non-interfering
			// owned version stays editable.
			if !r.createdByActingUser(v.CreatedByID) || t.IsStaging(v) || t.IsProduction(v) {
				return ReasonAccessDeniedDeviceOutsideScope
			}
		} else {
			if !r.createdByActingUser(v.CreatedByID) && !t.IsStaging(v) && !t.IsProduction(v) {
				return ReasonAccessDeniedNotOwned
			}
		}
	}

	if v.Type == model.TemplateVersionProduction {
		return ReasonProductionEditDisabled
	}
	return ""
}

func (r *Resolver) TemplateVersionDeleteDeny(v *model.TemplateVersion) string {
	t := v.Template
	if t == nil {
		return ReasonAccessDenied
	}

	if !r.isAllDevicesGranted() {
		if !r.createdByActingUser(v.CreatedByID) {
			return ReasonAccessDeniedNotOwned
		}
	}

	if t.IsProduction(v) {
		return ReasonSelectedProduction
	}
	if t.IsStaging(v) {
		return ReasonSelectedStaging
	}
	return ""
}

// FillTemplateVersionDeny computes the verdict over the template version
// action set.
func (r *Resolver) FillTemplateVersionDeny(v *model.TemplateVersion) model.Verdict {
	return model.Verdict{
		TemplateVersionActionSelectStaging:    r.TemplateVersionSelectStagingDeny(v),
		TemplateVersionActionSelectProduction: r.TemplateVersionSelectProductionDeny(v),
		TemplateVersionActionDetachStaging:    r.TemplateVersionDetachStagingDeny(v),
		TemplateVersionActionDetachProduction: r.TemplateVersionDetachProductionDeny(v),
		TemplateVersionActionEdit:             r.TemplateVersionEditDeny(v),
		TemplateVersionActionDelete:           r.TemplateVersionDeleteDeny(v),
		TemplateVersionActionDuplicate:        r.TemplateVersionDuplicateDeny(v),
	}
}
