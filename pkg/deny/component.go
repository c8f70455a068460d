package deny

import (
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// Config and Firmware share one action surface; both are template
// components reachable through template version slots.
const (
	ComponentActionEdit      = "edit"
	ComponentActionDelete    = "delete"
	ComponentActionDuplicate = "duplicate"
)

// anyProductionVersionUsingComponent reports whether a frozen production
// version references the component through any slot.
func anyProductionVersionUsingComponent(c model.TemplateComponent) bool {
	for _, version := range c.ReferencedVersions() {
		if version.Type == model.TemplateVersionProduction {
			return true
		}
	}
	return false
}

// anyDeviceInaccessibleUsingComponent walks every referencing version's
// template and reports whether some device using it lies outside the acting
// user's tag scope. Relations must be preloaded.
func (r *Resolver) anyDeviceInaccessibleUsingComponent(c model.TemplateComponent) bool {
	if r.isAllDevicesGranted() {
		return false
	}
	for _, version := range c.ReferencedVersions() {
		if version.Template == nil {
			continue
		}
		if r.anyDeviceInaccessibleUsingTemplate(version.Template) {
			return true
		}
	}
	return false
}

func (r *Resolver) ComponentEditDeny(c model.TemplateComponent) string {
	if !r.isAllDevicesGranted() {
		if r.anyDeviceInaccessibleUsingComponent(c) {
			return ReasonAccessDeniedDeviceOutsideScope
		}
		if !r.createdByActingUser(c.ComponentCreatedByID()) {
			return ReasonAccessDeniedNotOwned
		}
	}
	if anyProductionVersionUsingComponent(c) {
		return ReasonProductionEditDisabled
	}
	return ""
}

// ComponentDeleteDeny forbids removal while any version still references
// the component.
func (r *Resolver) ComponentDeleteDeny(c model.TemplateComponent) string {
	if !r.isAllDevicesGranted() {
		if !r.createdByActingUser(c.ComponentCreatedByID()) {
			return ReasonAccessDeniedNotOwned
		}
	}
	if len(c.ReferencedVersions()) > 0 {
		return "delete." + ReasonUsedByTemplate
	}
	return ""
}

func (r *Resolver) ComponentDuplicateDeny(c model.TemplateComponent) string {
	return ""
}

// FillComponentDeny computes the verdict over the component action set,
// identical for configs and firmwares.
func (r *Resolver) FillComponentDeny(c model.TemplateComponent) model.Verdict {
	return model.Verdict{
		ComponentActionEdit:      r.ComponentEditDeny(c),
		ComponentActionDelete:    r.ComponentDeleteDeny(c),
		ComponentActionDuplicate: r.ComponentDuplicateDeny(c),
	}
}
