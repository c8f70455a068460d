package deny

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/config"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// seedDeviceVpnType stores the device VPN certificate type the resolvers
// look up by category.
func seedDeviceVpnType(t *testing.T, db *gorm.DB) *model.CertificateType {
	t.Helper()
	ct := &model.CertificateType{
		Name:                "device-vpn",
		Enabled:             true,
		CertificateCategory: model.CategoryDeviceVpn,
		CertificateEntity:   model.CertificateEntityDevice,
	}
	require.NoError(t, db.Create(ct).Error)
	return ct
}

func seedTechnicianVpnType(t *testing.T, db *gorm.DB) *model.CertificateType {
	t.Helper()
	ct := &model.CertificateType{
		Name:                "technician-vpn",
		Enabled:             true,
		PkiEnabled:          true,
		PkiType:             model.PkiScep,
		CertificateCategory: model.CategoryTechnicianVpn,
		CertificateEntity:   model.CertificateEntityUser,
	}
	require.NoError(t, db.Create(ct).Error)
	return ct
}

func fullCertificate(typeID uint) model.Certificate {
	return model.Certificate{
		CertificateTypeID: typeID,
		CertificatePem:    "cert",
		CaCertificatePem:  "ca",
		PrivateKeyPem:     "key",
	}
}

// vpnReadyDevice builds a device that passes every open-side guard for the
// given user.
func vpnReadyDevice(certTypeID uint, tags ...model.AccessTag) *model.Device {
	return &model.Device{
		ID:      1,
		Name:    "gateway-1",
		Enabled: true,
		DeviceType: &model.DeviceType{
			ID: 1, Enabled: true, IsVpnAvailable: true,
			CommunicationProcedure: model.CommunicationEdgeVpn,
		},
		VpnIp:        "10.8.0.2",
		VpnConnected: true,
		AccessTags:   tags,
		Certificates: []model.Certificate{fullCertificate(certTypeID)},
	}
}

func TestVpnOpenGuardChain(t *testing.T) {
	tag := model.AccessTag{ID: 1, Name: "plant-a"}
	otherTag := model.AccessTag{ID: 2, Name: "plant-b"}

	db := testDB(t)
	ct := seedDeviceVpnType(t, db)

	user := vpnUser(tag)
	user.VpnConnected = true

	t.Run("suite blocked wins over everything", func(t *testing.T) {
		r := NewResolver(db, config.Snapshot{VpnSuiteBlocked: true}, user)
		require.Equal(t, ReasonVpnSuiteBlocked, r.VpnOpenConnectionDeny(vpnReadyDevice(ct.ID, tag)))
	})

	t.Run("unconfigured suite", func(t *testing.T) {
		r := NewResolver(db, config.Snapshot{}, user)
		require.Equal(t, ReasonVpnSuiteInvalidConfig, r.VpnOpenConnectionDeny(vpnReadyDevice(ct.ID, tag)))
	})

	t.Run("role required", func(t *testing.T) {
		r := NewResolver(db, openSnapshot(), smartemsUser())
		require.Equal(t, ReasonAccessDenied, r.VpnOpenConnectionDeny(vpnReadyDevice(ct.ID, tag)))
	})

	t.Run("vpn users are tag scoped", func(t *testing.T) {
		r := NewResolver(db, openSnapshot(), user)
		require.Equal(t, ReasonAccessDenied, r.VpnOpenConnectionDeny(vpnReadyDevice(ct.ID, otherTag)))
	})

	t.Run("device type without vpn", func(t *testing.T) {
		r := NewResolver(db, openSnapshot(), user)
		device := vpnReadyDevice(ct.ID, tag)
		device.DeviceType.IsVpnAvailable = false
		require.Equal(t, ReasonDisabledInDeviceType, r.VpnOpenConnectionDeny(device))
	})

	t.Run("incomplete certificate material", func(t *testing.T) {
		r := NewResolver(db, openSnapshot(), user)
		device := vpnReadyDevice(ct.ID, tag)
		device.Certificates[0].PrivateKeyPem = ""
		require.Equal(t, ReasonNoCertificate, r.VpnOpenConnectionDeny(device))
	})

	t.Run("missing vpn ip", func(t *testing.T) {
		r := NewResolver(db, openSnapshot(), user)
		device := vpnReadyDevice(ct.ID, tag)
		device.VpnIp = ""
		require.Equal(t, ReasonNoVpnIp, r.VpnOpenConnectionDeny(device))
	})

	t.Run("device offline", func(t *testing.T) {
		r := NewResolver(db, openSnapshot(), user)
		device := vpnReadyDevice(ct.ID, tag)
		device.VpnConnected = false
		require.Equal(t, ReasonNotConnectedToVpn, r.VpnOpenConnectionDeny(device))
	})

	t.Run("user offline", func(t *testing.T) {
		offline := vpnUser(tag)
		offline.VpnConnected = false
		r := NewResolver(db, openSnapshot(), offline)
		require.Equal(t, ReasonUserNotConnectedToVpn, r.VpnOpenConnectionDeny(vpnReadyDevice(ct.ID, tag)))
	})

	t.Run("happy path", func(t *testing.T) {
		r := NewResolver(db, openSnapshot(), user)
		require.Empty(t, r.VpnOpenConnectionDeny(vpnReadyDevice(ct.ID, tag)))
	})
}

func TestVpnOpenAlreadyConnected(t *testing.T) {
	tag := model.AccessTag{ID: 1, Name: "plant-a"}
	db := testDB(t)
	ct := seedDeviceVpnType(t, db)

	user := vpnUser(tag)
	user.VpnConnected = true
	r := NewResolver(db, openSnapshot(), user)

	device := vpnReadyDevice(ct.ID, tag)
	deviceID := device.ID
	device.VpnConnections = []model.VpnConnection{
		{ID: 1, UserID: user.ID, DeviceID: &deviceID},
	}
	require.Equal(t, ReasonAlreadyConnected, r.VpnOpenConnectionDeny(device))

	// Another user's connection does not collide.
	device.VpnConnections[0].UserID = 99
	require.Empty(t, r.VpnOpenConnectionDeny(device))

	// A connection to one of the device's endpoint devices does not collide
	// with a direct device connection either.
	endpointID := uint(5)
	device.VpnConnections = []model.VpnConnection{
		{ID: 2, UserID: user.ID, DeviceID: &deviceID, EndpointDeviceID: &endpointID},
	}
	require.Empty(t, r.VpnOpenConnectionDeny(device))
}

func TestVpnOpenEndpointDevice(t *testing.T) {
	tag := model.AccessTag{ID: 1, Name: "plant-a"}
	db := testDB(t)
	ct := seedDeviceVpnType(t, db)

	user := vpnUser(tag)
	user.VpnConnected = true
	r := NewResolver(db, openSnapshot(), user)

	parent := vpnReadyDevice(ct.ID, tag)
	endpoint := &model.DeviceEndpointDevice{ID: 5, Name: "plc-1", DeviceID: parent.ID, Device: parent, PhysicalIp: "192.168.1.10"}

	require.Empty(t, r.VpnOpenConnectionDeny(endpoint))

	endpoint.PhysicalIp = ""
	require.Equal(t, ReasonNoPhysicalIp, r.VpnOpenConnectionDeny(endpoint))

	endpoint.PhysicalIp = "192.168.1.10"
	endpointID := endpoint.ID
	endpoint.VpnConnections = []model.VpnConnection{{ID: 3, UserID: user.ID, EndpointDeviceID: &endpointID}}
	require.Equal(t, ReasonAlreadyConnected, r.VpnOpenConnectionDeny(endpoint))

	orphan := &model.DeviceEndpointDevice{ID: 6, Name: "plc-2", PhysicalIp: "192.168.1.11"}
	require.Equal(t, ReasonDisabledInDeviceType, r.VpnOpenConnectionDeny(orphan))
}

func TestVpnCloseOwnershipAndPermanence(t *testing.T) {
	db := testDB(t)
	seedDeviceVpnType(t, db)

	user := vpnUser()
	r := NewResolver(db, openSnapshot(), user)
	admin := NewResolver(db, openSnapshot(), adminUser())

	own := &model.VpnConnection{ID: 1, UserID: user.ID}
	foreign := &model.VpnConnection{ID: 2, UserID: 99}
	permanent := &model.VpnConnection{ID: 3, UserID: user.ID, Permanent: true}

	require.Empty(t, r.VpnCloseConnectionDeny(own))
	require.Equal(t, ReasonAccessDenied, r.VpnCloseConnectionDeny(foreign))
	require.Equal(t, ReasonConnectionNotAvailable, r.VpnCloseConnectionDeny(permanent))

	// VPN admins close any non-permanent connection, ownership aside.
	require.Empty(t, admin.VpnCloseConnectionDeny(foreign))
	require.Equal(t, ReasonConnectionNotAvailable, admin.VpnCloseConnectionDeny(permanent))
}

func TestVpnCloseDeviceScansClosableConnections(t *testing.T) {
	db := testDB(t)
	seedDeviceVpnType(t, db)

	user := vpnUser()
	r := NewResolver(db, openSnapshot(), user)

	deviceID := uint(1)
	device := &model.Device{
		ID:         deviceID,
		DeviceType: &model.DeviceType{ID: 1, IsVpnAvailable: true},
	}

	require.Equal(t, ReasonConnectionNotAvailable, r.VpnCloseConnectionDeny(device))

	device.VpnConnections = []model.VpnConnection{{ID: 1, UserID: 99, DeviceID: &deviceID}}
	require.Equal(t, ReasonConnectionNotAvailable, r.VpnCloseConnectionDeny(device))

	device.VpnConnections = append(device.VpnConnections, model.VpnConnection{ID: 2, UserID: user.ID, DeviceID: &deviceID})
	require.Empty(t, r.VpnCloseConnectionDeny(device))

	// Permanent connections never count as closable.
	device.VpnConnections = []model.VpnConnection{{ID: 3, UserID: user.ID, DeviceID: &deviceID, Permanent: true}}
	require.Equal(t, ReasonConnectionNotAvailable, r.VpnCloseConnectionDeny(device))
}

func TestDeviceDownloadVpnConfigDeny(t *testing.T) {
	tag := model.AccessTag{ID: 1, Name: "plant-a"}
	db := testDB(t)
	ct := seedDeviceVpnType(t, db)

	r := NewResolver(db, openSnapshot(), vpnUser(tag))
	device := vpnReadyDevice(ct.ID, tag)

	require.Empty(t, r.DeviceDownloadVpnConfigDeny(device))

	device.Certificates = nil
	require.Equal(t, ReasonNoCertificate, r.DeviceDownloadVpnConfigDeny(device))

	blocked := NewResolver(db, config.Snapshot{VpnSuiteBlocked: true}, vpnUser(tag))
	require.Equal(t, ReasonVpnSuiteBlocked, blocked.DeviceDownloadVpnConfigDeny(device))
}

func TestUserDownloadVpnConfigDeny(t *testing.T) {
	db := testDB(t)
	ct := seedTechnicianVpnType(t, db)

	holder := vpnUser()
	holder.Certificates = []model.Certificate{fullCertificate(ct.ID)}

	self := NewResolver(db, openSnapshot(), holder)
	require.Empty(t, self.UserDownloadVpnConfigDeny(holder))

	stranger := NewResolver(db, openSnapshot(), smartemsUser())
	require.Equal(t, ReasonAccessDenied, stranger.UserDownloadVpnConfigDeny(holder))

	admin := NewResolver(db, openSnapshot(), adminUser())
	require.Empty(t, admin.UserDownloadVpnConfigDeny(holder))

	// A user without the admin or vpn role has no technician profile.
	smartemsOnly := smartemsUser()
	adminView := NewResolver(db, openSnapshot(), adminUser())
	require.Equal(t, ReasonRoleNotSupported, adminView.UserDownloadVpnConfigDeny(smartemsOnly))

	holder.Certificates = nil
	require.Equal(t, ReasonNoCertificate, admin.UserDownloadVpnConfigDeny(holder))
}
