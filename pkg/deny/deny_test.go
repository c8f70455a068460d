package deny

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/config"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.AccessTag{},
		&model.User{},
		&model.UserDeviceType{},
		&model.DeviceType{},
		&model.DeviceTypeCertificateType{},
		&model.DeviceTypeSecret{},
		&model.Device{},
		&model.DeviceEndpointDevice{},
		&model.DeviceSecret{},
		&model.CertificateType{},
		&model.Certificate{},
		&model.Template{},
		&model.TemplateVersion{},
		&model.Config{},
		&model.Firmware{},
		&model.VpnConnection{},
	))
	return db
}

// openSnapshot is a config snapshot with every optional subsystem usable.
func openSnapshot() config.Snapshot {
	return config.Snapshot{
		VpnSuiteConfigured:         true,
		ScepConfigured:             true,
		TotpEnabled:                true,
		FailedLoginAttemptsEnabled: true,
	}
}

func adminUser() *model.User {
	return &model.User{ID: 1, Username: "admin", Enabled: true, RoleAdmin: true}
}

func vpnUser(tags ...model.AccessTag) *model.User {
	return &model.User{ID: 2, Username: "tech", Enabled: true, RoleVpn: true, AccessTags: tags}
}

func smartemsUser() *model.User {
	return &model.User{ID: 3, Username: "ems", Enabled: true, RoleSmartems: true}
}

func TestDeviceEnableDisableFlip(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	device := &model.Device{ID: 1, Name: "router-1", Enabled: false, DeviceType: &model.DeviceType{ID: 1, Enabled: true}}

	require.Empty(t, r.DeviceEnableDeny(device))
	require.Equal(t, ReasonAlreadyDisabled, r.DeviceDisableDeny(device))

	device.Enabled = true
	require.Equal(t, ReasonAlreadyEnabled, r.DeviceEnableDeny(device))
	require.Empty(t, r.DeviceDisableDeny(device))
}

func TestDeviceActionsRequireAdminOrSmartems(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), vpnUser())
	device := &model.Device{ID: 1, DeviceType: &model.DeviceType{ID: 1, Enabled: true, HasVariables: true}}

	require.Equal(t, ReasonAccessDenied, r.DeviceEnableDeny(device))
	require.Equal(t, ReasonAccessDenied, r.DeviceVariableAddDeny(device))
	require.Equal(t, ReasonAccessDenied, r.DeviceDuplicateDeny(device))
	require.Equal(t, ReasonAccessDenied, r.DeviceDeleteDeny(device))
}

func TestDeviceCapabilityGuards(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	bare := &model.Device{ID: 1, DeviceType: &model.DeviceType{ID: 1, Enabled: true}}
	require.Equal(t, ReasonVariablesDisabled, r.DeviceVariableAddDeny(bare))
	require.Equal(t, ReasonTemplatesDisabled, r.DeviceTemplateApplyDeny(bare))
	require.Equal(t, ReasonNoDeviceCommandsCapability, r.DeviceCommandsDeny(bare))
	require.Equal(t, ReasonNoCommunicationCapability, r.DeviceCommunicationLogsDeny(bare))

	// A device without its type is malformed input, still a deny not a panic.
	orphan := &model.Device{ID: 2}
	require.Equal(t, ReasonVariablesDisabled, r.DeviceVariableAddDeny(orphan))
	require.Equal(t, ReasonTemplatesDisabled, r.DeviceTemplateApplyDeny(orphan))
}

func TestDeviceGenerateConfigChain(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	deviceType := &model.DeviceType{ID: 1, Enabled: true, HasTemplates: true, HasConfig1: true}
	device := &model.Device{ID: 1, DeviceType: deviceType}

	require.Equal(t, ReasonTemplateMissing, r.DeviceGenerateConfigPrimaryDeny(device))
	require.Equal(t, ReasonConfig2Disabled, r.DeviceGenerateConfigSecondaryDeny(device))

	templateID := uint(7)
	device.TemplateID = &templateID
	require.Equal(t, ReasonTemplateVersionMissing, r.DeviceGenerateConfigPrimaryDeny(device))

	versionID := uint(8)
	device.TemplateVersionID = &versionID
	device.TemplateVersion = &model.TemplateVersion{ID: versionID, TemplateID: templateID}
	require.Equal(t, ReasonConfig1Missing, r.DeviceGenerateConfigPrimaryDeny(device))

	configID := uint(9)
	device.TemplateVersion.Config1ID = &configID
	require.Empty(t, r.DeviceGenerateConfigPrimaryDeny(device))
}

func TestDeviceEditRequiresTagIntersection(t *testing.T) {
	tag1 := model.AccessTag{ID: 1, Name: "plant-a"}
	tag2 := model.AccessTag{ID: 2, Name: "plant-b"}

	device := &model.Device{ID: 1, AccessTags: []model.AccessTag{tag1}, DeviceType: &model.DeviceType{ID: 1}}

	inScope := NewResolver(testDB(t), openSnapshot(), vpnUser(tag1))
	require.Empty(t, inScope.DeviceEditDeny(device))

	outOfScope := NewResolver(testDB(t), openSnapshot(), vpnUser(tag2))
	require.Equal(t, ReasonAccessDenied, outOfScope.DeviceEditDeny(device))

	admin := NewResolver(testDB(t), openSnapshot(), adminUser())
	require.Empty(t, admin.DeviceEditDeny(device))
}

func TestDeviceLogsAggregation(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), smartemsUser())

	// No capability at all: every log family denies, so the aggregate does.
	silent := &model.Device{ID: 1, DeviceType: &model.DeviceType{ID: 1, Enabled: true, CommunicationProcedure: model.CommunicationNone}}
	require.Equal(t, ReasonAccessDenied, r.DeviceLogsDeny(silent))

	// One reachable family is enough for the aggregated view.
	talkative := &model.Device{ID: 2, DeviceType: &model.DeviceType{ID: 2, Enabled: true, CommunicationProcedure: model.CommunicationEdge}}
	require.Empty(t, r.DeviceLogsDeny(talkative))
}

// Totality: the fill methods are defined for minimal, even malformed,
// entities and never panic; every action maps to empty or a reason.
func TestFillMethodsAreTotal(t *testing.T) {
	resolvers := []*Resolver{
		NewResolver(testDB(t), openSnapshot(), adminUser()),
		NewResolver(testDB(t), config.Snapshot{}, nil),
		NewResolver(testDB(t), config.Snapshot{MaintenanceMode: true, VpnSuiteBlocked: true, ScepBlocked: true}, vpnUser()),
	}

	for _, r := range resolvers {
		for _, verdict := range []model.Verdict{
			r.FillDeviceDeny(&model.Device{}),
			r.FillEndpointDeviceDeny(&model.DeviceEndpointDevice{}),
			r.FillUserDeny(&model.User{}),
			r.FillDeviceTypeDeny(&model.DeviceType{}),
			r.FillDeviceSecretDeny(&model.DeviceSecret{}),
			r.FillTemplateDeny(&model.Template{}),
			r.FillTemplateVersionDeny(&model.TemplateVersion{}),
			r.FillCertificateDeny(&model.Certificate{}),
			r.FillComponentDeny(&model.Config{}),
			r.FillComponentDeny(&model.Firmware{}),
		} {
			require.NotEmpty(t, verdict)
		}
	}
}

// Unsupported entity kinds fail closed with the generic reason.
func TestUnsupportedEntitiesFailClosed(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	require.Equal(t, ReasonAccessDenied, r.CertificateTypeDeny(42))
	require.Equal(t, ReasonAccessDenied, r.CertificateTypeDeny(nil))
	require.Equal(t, ReasonAccessDenied, r.VpnOpenConnectionDeny("device"))
	require.Equal(t, ReasonAccessDenied, r.VpnCloseConnectionDeny(struct{}{}))
}

// Determinism: identical inputs produce identical verdict maps.
func TestFillDeviceDenyDeterministic(t *testing.T) {
	db := testDB(t)
	r := NewResolver(db, openSnapshot(), adminUser())

	device := &model.Device{
		ID:      1,
		Name:    "router-1",
		Enabled: true,
		DeviceType: &model.DeviceType{
			ID: 1, Enabled: true,
			HasTemplates: true, HasConfig1: true, HasVariables: true,
			IsVpnAvailable: true, CommunicationProcedure: model.CommunicationEdge,
		},
		VpnIp: "10.8.0.2",
	}

	first := r.FillDeviceDeny(device)
	second := r.FillDeviceDeny(device)
	require.Equal(t, first, second)
}

func TestDeviceTypeEnableValidity(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	scepType := &model.DeviceType{ID: 1, CommunicationProcedure: model.CommunicationNoneScep}
	require.Equal(t, ReasonCannotEnable, r.DeviceTypeEnableDeny(scepType))
	scepType.HasCertificates = true
	require.Empty(t, r.DeviceTypeEnableDeny(scepType))

	vpnType := &model.DeviceType{ID: 2, CommunicationProcedure: model.CommunicationEdgeVpn}
	require.Equal(t, ReasonCannotEnable, r.DeviceTypeEnableDeny(vpnType))
	vpnType.IsVpnAvailable = true
	require.Empty(t, r.DeviceTypeEnableDeny(vpnType))

	enabled := &model.DeviceType{ID: 3, Enabled: true}
	require.Equal(t, ReasonAlreadyEnabled, r.DeviceTypeEnableDeny(enabled))
	require.Empty(t, r.DeviceTypeDisableDeny(enabled))
}

func TestDeviceTypeUsedByChain(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	free := &model.DeviceType{ID: 1, Enabled: true}
	require.Empty(t, r.DeviceTypeDeleteDeny(free))
	require.Empty(t, r.DeviceTypeEditDeny(free))
	require.Equal(t, ReasonLimitedEdit, r.DeviceTypeLimitedEditDeny(free))

	used := &model.DeviceType{ID: 2, Enabled: true, Devices: []model.Device{{ID: 1}}}
	require.Equal(t, "delete."+ReasonUsedByDevice, r.DeviceTypeDeleteDeny(used))
	require.Equal(t, "edit."+ReasonUsedByDevice, r.DeviceTypeEditDeny(used))
	require.Empty(t, r.DeviceTypeLimitedEditDeny(used))

	templated := &model.DeviceType{ID: 3, Enabled: true, Templates: []model.Template{{ID: 1}}}
	require.Equal(t, "delete."+ReasonUsedByTemplate, r.DeviceTypeDeleteDeny(templated))
}

func TestDeviceSecretScoping(t *testing.T) {
	tag1 := model.AccessTag{ID: 1, Name: "plant-a"}
	tag2 := model.AccessTag{ID: 2, Name: "plant-b"}

	secret := &model.DeviceSecret{
		ID:     1,
		Device: &model.Device{ID: 1, AccessTags: []model.AccessTag{tag1}},
		DeviceTypeSecret: &model.DeviceTypeSecret{
			ID: 1, ManualEdit: true,
			AccessTags: []model.AccessTag{tag1},
		},
	}

	admin := NewResolver(testDB(t), openSnapshot(), adminUser())
	require.Empty(t, admin.DeviceSecretShowDeny(secret))

	// Both the device tags and the secret slot tags must intersect.
	inScope := NewResolver(testDB(t), openSnapshot(), vpnUser(tag1))
	require.Empty(t, inScope.DeviceSecretShowDeny(secret))

	outOfScope := NewResolver(testDB(t), openSnapshot(), vpnUser(tag2))
	require.Equal(t, ReasonAccessDenied, outOfScope.DeviceSecretShowDeny(secret))

	secret.DeviceTypeSecret.AccessTags = []model.AccessTag{tag2}
	require.Equal(t, ReasonAccessDenied, inScope.DeviceSecretShowDeny(secret))
}

func TestDeviceSecretLifecycleGuards(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	slot := &model.DeviceTypeSecret{ID: 1, ManualEdit: true}
	existing := &model.DeviceSecret{ID: 1, Device: &model.Device{ID: 1}, DeviceTypeSecret: slot}
	draft := &model.DeviceSecret{Device: &model.Device{ID: 1}, DeviceTypeSecret: slot}

	require.Equal(t, ReasonAccessDenied, r.DeviceSecretGetDeny(existing))
	require.Equal(t, ReasonAccessDenied, r.DeviceSecretDeleteDeny(existing))

	require.Equal(t, ReasonDeviceSecretExists, r.DeviceSecretCreateDeny(existing))
	require.Empty(t, r.DeviceSecretCreateDeny(draft))

	require.Equal(t, ReasonDeviceSecretDoesNotExist, r.DeviceSecretEditDeny(draft))
	require.Empty(t, r.DeviceSecretEditDeny(existing))

	require.Empty(t, r.DeviceSecretShowDeny(existing))
	require.Equal(t, ReasonAccessDenied, r.DeviceSecretShowDeny(draft))
	require.Empty(t, r.DeviceSecretShowVariablesDeny(draft))
	require.Equal(t, ReasonAccessDenied, r.DeviceSecretShowVariablesDeny(existing))
}

func TestDeviceSecretForceRenewal(t *testing.T) {
	r := NewResolver(testDB(t), openSnapshot(), adminUser())

	slot := &model.DeviceTypeSecret{
		ID: 1, UseAsVariable: true, ManualForceRenewal: true,
		SecretValueBehaviour: model.SecretValueGenerate,
	}
	secret := &model.DeviceSecret{ID: 1, Device: &model.Device{ID: 1}, DeviceTypeSecret: slot}

	require.Empty(t, r.DeviceSecretEnableForceRenewalDeny(secret))
	require.Equal(t, ReasonAccessDenied, r.DeviceSecretDisableForceRenewalDeny(secret))

	secret.ForceRenewal = true
	require.Equal(t, ReasonAccessDenied, r.DeviceSecretEnableForceRenewalDeny(secret))
	require.Empty(t, r.DeviceSecretDisableForceRenewalDeny(secret))

	slot.SecretValueBehaviour = model.SecretValueNone
	require.Equal(t, ReasonAccessDenied, r.DeviceSecretDisableForceRenewalDeny(secret))
}
