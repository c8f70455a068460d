package deny

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

func taggedDevice(id uint, tags ...model.AccessTag) model.Device {
	return model.Device{ID: id, AccessTags: tags}
}

func TestTemplateEditScope(t *testing.T) {
	tag1 := model.AccessTag{ID: 1, Name: "plant-a"}
	tag2 := model.AccessTag{ID: 2, Name: "plant-b"}

	creatorID := uint(30)
	template := &model.Template{
		ID: 1, Name: "edge-base", CreatedByID: &creatorID,
		Devices: []model.Device{taggedDevice(1, tag1)},
	}

	// Actor with a different tag: the using device is outside their scope.
	outsider := NewResolver(testDB(t), openSnapshot(), vpnUser(tag2))
	require.Equal(t, ReasonAccessDeniedDeviceOutsideScope, outsider.TemplateEditDeny(template))

	// Actor who reaches the device but did not author the template.
	reader := NewResolver(testDB(t), openSnapshot(), vpnUser(tag1))
	require.Equal(t, ReasonAccessDeniedNotOwned, reader.TemplateEditDeny(template))

	// The author inside scope may edit.
	author := vpnUser(tag1)
	author.ID = creatorID
	owner := NewResolver(testDB(t), openSnapshot(), author)
	require.Empty(t, owner.TemplateEditDeny(template))

	// Unrestricted access bypasses both checks.
	admin := NewResolver(testDB(t), openSnapshot(), adminUser())
	require.Empty(t, admin.TemplateEditDeny(template))
}

func TestTemplateDelete(t *testing.T) {
	creatorID := uint(30)
	used := &model.Template{ID: 1, CreatedByID: &creatorID, Devices: []model.Device{taggedDevice(1)}}
	free := &model.Template{ID: 2, CreatedByID: &creatorID}

	admin := NewResolver(testDB(t), openSnapshot(), adminUser())
	require.Equal(t, "delete."+ReasonUsedByDevice, admin.TemplateDeleteDeny(used))
	require.Empty(t, admin.TemplateDeleteDeny(free))

	stranger := NewResolver(testDB(t), openSnapshot(), vpnUser())
	require.Equal(t, ReasonAccessDeniedNotOwned, stranger.TemplateDeleteDeny(free))
}

func templateWithVersions(stagingID, productionID *uint) (*model.Template, *model.TemplateVersion, *model.TemplateVersion) {
	template := &model.Template{ID: 1, Name: "edge-base", StagingVersionID: stagingID, ProductionVersionID: productionID}
	staging := &model.TemplateVersion{ID: 10, TemplateID: 1, Template: template, Type: model.TemplateVersionStaging}
	production := &model.TemplateVersion{ID: 20, TemplateID: 1, Template: template, Type: model.TemplateVersionProduction}
	return template, staging, production
}

func TestTemplateVersionSelectStaging(t *testing.T) {
	admin := NewResolver(testDB(t), openSnapshot(), adminUser())

	stagingID := uint(10)
	_, staging, production := templateWithVersions(&stagingID, nil)

	require.Equal(t, ReasonAlreadySelectedStaging, admin.TemplateVersionSelectStagingDeny(staging))
	require.Equal(t, ReasonSelectStagingNotTypeStaging, admin.TemplateVersionSelectStagingDeny(production))

	_, other, _ := templateWithVersions(nil, nil)
	require.Empty(t, admin.TemplateVersionSelectStagingDeny(other))
}

func TestTemplateVersionSelectProduction(t *testing.T) {
	admin := NewResolver(testDB(t), openSnapshot(), adminUser())

	stagingID := uint(10)
	productionID := uint(20)
	_, staging, production := templateWithVersions(&stagingID, &productionID)

	require.Equal(t, ReasonAlreadySelectedProduction, admin.TemplateVersionSelectProductionDeny(production))
	// The selected staging version may be promoted.
	require.Empty(t, admin.TemplateVersionSelectProductionDeny(staging))

	// A plain staging version that is not selected may not jump straight to
	// production.
	_, unselected, _ := templateWithVersions(nil, &productionID)
	require.Equal(t, ReasonNotSelectedStagingAndNotTypeProduction, admin.TemplateVersionSelectProductionDeny(unselected))
}

func TestTemplateVersionDetach(t *testing.T) {
	admin := NewResolver(testDB(t), openSnapshot(), adminUser())

	stagingID := uint(10)
	productionID := uint(20)
	_, staging, production := templateWithVersions(&stagingID, &productionID)

	require.Empty(t, admin.TemplateVersionDetachStagingDeny(staging))
	require.Equal(t, ReasonNotSelectedStaging, admin.TemplateVersionDetachStagingDeny(production))
	require.Empty(t, admin.TemplateVersionDetachProductionDeny(production))
	require.Equal(t, ReasonNotSelectedProduction, admin.TemplateVersionDetachProductionDeny(staging))
}

func TestTemplateVersionEditAndDelete(t *testing.T) {
	admin := NewResolver(testDB(t), openSnapshot(), adminUser())

	stagingID := uint(10)
	productionID := uint(20)
	_, staging, production := templateWithVersions(&stagingID, &productionID)

	require.Empty(t, admin.TemplateVersionEditDeny(staging))
	// Frozen production versions are never editable, even for admins.
	require.Equal(t, ReasonProductionEditDisabled, admin.TemplateVersionEditDeny(production))

	require.Equal(t, ReasonSelectedStaging, admin.TemplateVersionDeleteDeny(staging))
	require.Equal(t, ReasonSelectedProduction, admin.TemplateVersionDeleteDeny(production))

	_, unselected, _ := templateWithVersions(nil, nil)
	require.Empty(t, admin.TemplateVersionDeleteDeny(unselected))
}

func TestTemplateVersionEditScopedActor(t *testing.T) {
	tag1 := model.AccessTag{ID: 1, Name: "plant-a"}
	tag2 := model.AccessTag{ID: 2, Name: "plant-b"}

	actor := vpnUser(tag2)
	r := NewResolver(testDB(t), openSnapshot(), actor)

	// Template used by a device outside the actor's scope: only an owned,
	// non-selected version stays editable.
	template := &model.Template{ID: 1, Devices: []model.Device{taggedDevice(1, tag1)}}
	foreign := &model.TemplateVersion{ID: 10, TemplateID: 1, Template: template, Type: model.TemplateVersionStaging}
	require.Equal(t, ReasonAccessDeniedDeviceOutsideScope, r.TemplateVersionEditDeny(foreign))

	ownedID := actor.ID
	owned := &model.TemplateVersion{ID: 11, TemplateID: 1, Template: template, Type: model.TemplateVersionStaging, CreatedByID: &ownedID}
	require.Empty(t, r.TemplateVersionEditDeny(owned))

	// The same owned version stops being editable once selected.
	template.StagingVersionID = &owned.ID
	require.Equal(t, ReasonAccessDeniedDeviceOutsideScope, r.TemplateVersionEditDeny(owned))
}

func TestComponentEditAndDelete(t *testing.T) {
	tag1 := model.AccessTag{ID: 1, Name: "plant-a"}
	creatorID := uint(30)

	template := &model.Template{ID: 1, Devices: []model.Device{taggedDevice(1, tag1)}}
	productionVersion := model.TemplateVersion{ID: 20, TemplateID: 1, Template: template, Type: model.TemplateVersionProduction}

	component := &model.Config{ID: 5, Name: "base-config", CreatedByID: &creatorID, Versions1: []model.TemplateVersion{productionVersion}}

	admin := NewResolver(testDB(t), openSnapshot(), adminUser())
	require.Equal(t, ReasonProductionEditDisabled, admin.ComponentEditDeny(component))
	require.Equal(t, "delete."+ReasonUsedByTemplate, admin.ComponentDeleteDeny(component))

	outsider := NewResolver(testDB(t), openSnapshot(), vpnUser(model.AccessTag{ID: 2, Name: "plant-b"}))
	require.Equal(t, ReasonAccessDeniedDeviceOutsideScope, outsider.ComponentEditDeny(component))

	free := &model.Config{ID: 6, Name: "spare-config", CreatedByID: &creatorID}
	require.Empty(t, admin.ComponentEditDeny(free))
	require.Empty(t, admin.ComponentDeleteDeny(free))

	stranger := NewResolver(testDB(t), openSnapshot(), vpnUser())
	require.Equal(t, ReasonAccessDeniedNotOwned, stranger.ComponentDeleteDeny(free))
}
