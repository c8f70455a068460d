package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/deny"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
	"github.com/eclipse-sealman/sealman-ems/pkg/vpn"
)

func (s *Server) lifecycle(c *gin.Context) *vpn.Lifecycle {
	return vpn.NewLifecycle(s.db, requestResolver(c))
}

// respondLifecycleError maps lifecycle failures: deny reasons are 403,
// a lost uniqueness race is 409 so the client can refresh and retry.
func (s *Server) respondLifecycleError(c *gin.Context, err error) {
	var denied *vpn.DeniedError
	switch {
	case errors.As(err, &denied):
		respondDeny(c, denied.Reason, s.logger)
	case errors.Is(err, vpn.ErrAlreadyConnected):
		respondConflict(c, deny.ReasonAlreadyConnected, s.logger)
	default:
		respondError(c, http.StatusInternalServerError, "vpn transition failed", s.logger)
	}
}

// notifySuiteOpened pushes the lifecycle event to the VPN security suite in
// the background. The database row is authoritative; a failed notification
// never rolls it back.
func (s *Server) notifySuiteOpened(connection *model.VpnConnection) {
	if s.suite == nil {
		return
	}
	event := *connection
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.suite.NotifyOpened(ctx, &event); err != nil {
			s.logger.Warn().Err(err).Msg("vpn suite open notification failed")
		}
	}()
}

func (s *Server) notifySuiteClosed(username string, deviceID, endpointDeviceID *uint) {
	if s.suite == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.suite.NotifyClosed(ctx, username, deviceID, endpointDeviceID); err != nil {
			s.logger.Warn().Err(err).Msg("vpn suite close notification failed")
		}
	}()
}

func (s *Server) openDeviceVpn(c *gin.Context) {
	device := s.fetchVisibleDevice(c)
	if device == nil {
		return
	}

	connection, err := s.lifecycle(c).Open(device)
	if err != nil {
		s.respondLifecycleError(c, err)
		return
	}

	s.notifySuiteOpened(connection)
	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("device", device.Name).Msg("vpn connection opened")
	c.JSON(http.StatusCreated, connection)
}

func (s *Server) openAllDeviceVpn(c *gin.Context) {
	device := s.fetchVisibleDevice(c)
	if device == nil {
		return
	}

	results, err := s.lifecycle(c).OpenAll(device)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "vpn batch open failed", s.logger)
		return
	}

	opened := 0
	for _, result := range results {
		if result.Connection != nil {
			opened++
			s.notifySuiteOpened(result.Connection)
		}
	}
	reqLog := requestLogger(c, s.logger)
	reqLog.Info().
		Str("device", device.Name).
		Int("opened", opened).
		Int("targets", len(results)).
		Msg("vpn batch open finished")

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) closeDeviceVpn(c *gin.Context) {
	device := s.fetchVisibleDevice(c)
	if device == nil {
		return
	}

	closed, err := s.lifecycle(c).Close(device)
	if err != nil {
		s.respondLifecycleError(c, err)
		return
	}

	s.notifySuiteClosed(currentUser(c).Username, &device.ID, nil)
	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("device", device.Name).Int64("closed", closed).Msg("vpn connections closed")
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

func (s *Server) loadEndpointDevice(c *gin.Context) *model.DeviceEndpointDevice {
	id, ok := pathID(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid endpoint device id", s.logger)
		return nil
	}

	var endpoint model.DeviceEndpointDevice
	err := s.db.
		Preload("AccessTags").
		Preload("VpnConnections").
		First(&endpoint, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "endpoint device not found", s.logger)
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load endpoint device", s.logger)
		}
		return nil
	}

	parent, err := s.loadDevice(endpoint.DeviceID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load parent device", s.logger)
		return nil
	}
	endpoint.Device = parent

	// Endpoint devices are visible through their own tags or the parent's.
	resolver := requestResolver(c)
	user := currentUser(c)
	if !resolver.Scope().IsReachable(user, endpoint.AccessTags) &&
		!resolver.Scope().IsDeviceReachable(user, parent) {
		respondError(c, http.StatusNotFound, "endpoint device not found", s.logger)
		return nil
	}
	return &endpoint
}

func (s *Server) openEndpointDeviceVpn(c *gin.Context) {
	endpoint := s.loadEndpointDevice(c)
	if endpoint == nil {
		return
	}

	connection, err := s.lifecycle(c).Open(endpoint)
	if err != nil {
		s.respondLifecycleError(c, err)
		return
	}

	s.notifySuiteOpened(connection)
	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("endpoint_device", endpoint.Name).Msg("vpn connection opened")
	c.JSON(http.StatusCreated, connection)
}

func (s *Server) closeEndpointDeviceVpn(c *gin.Context) {
	endpoint := s.loadEndpointDevice(c)
	if endpoint == nil {
		return
	}

	closed, err := s.lifecycle(c).Close(endpoint)
	if err != nil {
		s.respondLifecycleError(c, err)
		return
	}

	s.notifySuiteClosed(currentUser(c).Username, nil, &endpoint.ID)
	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("endpoint_device", endpoint.Name).Int64("closed", closed).Msg("vpn connections closed")
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

func (s *Server) closeVpnConnection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid connection id", s.logger)
		return
	}

	var connection model.VpnConnection
	if err := s.db.First(&connection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "connection not found", s.logger)
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load connection", s.logger)
		}
		return
	}

	closed, err := s.lifecycle(c).Close(&connection)
	if err != nil {
		s.respondLifecycleError(c, err)
		return
	}

	s.notifySuiteClosed(connection.Source, connection.DeviceID, connection.EndpointDeviceID)
	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Uint("connection", connection.ID).Msg("vpn connection closed")
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

// listVpnConnections returns the caller's connections, or every connection
// for VPN admins.
func (s *Server) listVpnConnections(c *gin.Context) {
	query := s.db.Order("id")
	if !requestResolver(c).HasRole(security.RoleAdminVpn) {
		query = query.Where("user_id = ?", currentUser(c).ID)
	}

	var connections []model.VpnConnection
	if err := query.Find(&connections).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list connections", s.logger)
		return
	}
	c.JSON(http.StatusOK, connections)
}
