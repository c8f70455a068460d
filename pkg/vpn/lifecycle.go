// Package vpn implements the VPN connection open/close lifecycle on top of
// the deny resolvers. The resolver's alreadyConnected guard is a race-prone
// pre-check; the lifecycle enforces uniqueness again inside the writing
// transaction and reports a lost race as ErrAlreadyConnected, distinct from
// a denial.
package vpn

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/deny"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

// ErrAlreadyConnected reports a uniqueness conflict detected at write time:
// the pre-check passed but another request created the connection first.
// Callers should surface a conflict, not a denial.
var ErrAlreadyConnected = errors.New("vpn connection already open")

// DeniedError carries the resolver's reason code when a transition is not
// permitted.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "vpn transition denied: " + e.Reason
}

// Lifecycle executes open/close transitions for one request's resolver.
type Lifecycle struct {
	db       *gorm.DB
	resolver *deny.Resolver
}

func NewLifecycle(db *gorm.DB, resolver *deny.Resolver) *Lifecycle {
	return &Lifecycle{db: db, resolver: resolver}
}

// Open creates an ephemeral connection from the acting user to a device or
// endpoint device. Permanent connections are never created here.
func (l *Lifecycle) Open(target any) (*model.VpnConnection, error) {
	if reason := l.resolver.VpnOpenConnectionDeny(target); reason != "" {
		return nil, &DeniedError{Reason: reason}
	}

	user := l.resolver.User()
	if user == nil {
		return nil, &DeniedError{Reason: deny.ReasonAccessDenied}
	}

	now := time.Now()
	connection := &model.VpnConnection{
		UserID:            user.ID,
		Source:            user.Username,
		ConnectionStartAt: &now,
	}

	var uniqueCondition string
	var uniqueArgs []any
	switch o := target.(type) {
	case *model.Device:
		deviceID := o.ID
		connection.DeviceID = &deviceID
		connection.Destination = o.VpnIp
		uniqueCondition = "user_id = ? AND device_id = ? AND endpoint_device_id IS NULL"
		uniqueArgs = []any{user.ID, o.ID}
	case *model.DeviceEndpointDevice:
		endpointID := o.ID
		connection.EndpointDeviceID = &endpointID
		connection.Destination = o.PhysicalIp
		if o.Device != nil {
			deviceID := o.Device.ID
			connection.DeviceID = &deviceID
		}
		uniqueCondition = "user_id = ? AND endpoint_device_id = ?"
		uniqueArgs = []any{user.ID, o.ID}
	default:
		return nil, &DeniedError{Reason: deny.ReasonAccessDenied}
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.VpnConnection{}).
			Where(uniqueCondition, uniqueArgs...).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyConnected
		}
		return tx.Create(connection).Error
	})
	if err != nil {
		return nil, err
	}
	return connection, nil
}

// Close removes closable connections for a device, endpoint device or a
// single connection record and returns how many were closed. Non-admins
// only close their own; permanent connections are never touched.
func (l *Lifecycle) Close(target any) (int64, error) {
	if reason := l.resolver.VpnCloseConnectionDeny(target); reason != "" {
		return 0, &DeniedError{Reason: reason}
	}

	user := l.resolver.User()
	if user == nil {
		return 0, &DeniedError{Reason: deny.ReasonAccessDenied}
	}

	admin := l.resolver.HasRole(security.RoleAdminVpn)

	query := l.db.Where("permanent = ?", false)
	switch o := target.(type) {
	case *model.VpnConnection:
		query = query.Where("id = ?", o.ID)
	case *model.Device:
		query = query.Where("device_id = ? AND endpoint_device_id IS NULL", o.ID)
		if !admin {
			query = query.Where("user_id = ?", user.ID)
		}
	case *model.DeviceEndpointDevice:
		query = query.Where("endpoint_device_id = ?", o.ID)
		if !admin {
			query = query.Where("user_id = ?", user.ID)
		}
	default:
		return 0, &DeniedError{Reason: deny.ReasonAccessDenied}
	}

	result := query.Delete(&model.VpnConnection{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, &DeniedError{Reason: deny.ReasonConnectionNotAvailable}
	}
	return result.RowsAffected, nil
}

// TargetResult is one sub-target outcome of a batch open.
type TargetResult struct {
	EndpointDeviceID *uint                `json:"endpointDeviceId,omitempty"`
	DeviceID         *uint                `json:"deviceId,omitempty"`
	Reason           string               `json:"reason,omitempty"`
	Conflict         bool                 `json:"conflict,omitempty"`
	Connection       *model.VpnConnection `json:"connection,omitempty"`
}

// OpenAll opens a connection to the device and each of its endpoint
// devices, evaluating every sub-target independently. One failing
// sub-target never aborts its siblings.
func (l *Lifecycle) OpenAll(device *model.Device) ([]TargetResult, error) {
	results := make([]TargetResult, 0, len(device.EndpointDevices)+1)

	deviceID := device.ID
	results = append(results, l.openOne(device, TargetResult{DeviceID: &deviceID}))

	for i := range device.EndpointDevices {
		endpoint := &device.EndpointDevices[i]
		if endpoint.Device == nil {
			endpoint.Device = device
		}
		endpointID := endpoint.ID
		results = append(results, l.openOne(endpoint, TargetResult{DeviceID: &deviceID, EndpointDeviceID: &endpointID}))
	}

	return results, nil
}

func (l *Lifecycle) openOne(target any, result TargetResult) TargetResult {
	connection, err := l.Open(target)
	switch {
	case err == nil:
		result.Connection = connection
	case errors.Is(err, ErrAlreadyConnected):
		result.Conflict = true
		result.Reason = deny.ReasonAlreadyConnected
	default:
		var denied *DeniedError
		if errors.As(err, &denied) {
			result.Reason = denied.Reason
		} else {
			result.Reason = deny.ReasonAccessDenied
		}
	}
	return result
}
