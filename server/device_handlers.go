package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

// deviceResponse is a device with its verdict map and certificate fan-out
// attached, so clients render affordances without reimplementing rules.
type deviceResponse struct {
	*model.Device
	Deny                model.Verdict              `json:"deny"`
	UseableCertificates []model.UseableCertificate `json:"useableCertificates"`
}

func (s *Server) deviceResponse(c *gin.Context, device *model.Device) deviceResponse {
	resolver := requestResolver(c)
	return deviceResponse{
		Device:              device,
		Deny:                resolver.FillDeviceDeny(device),
		UseableCertificates: resolver.UseableCertificates(device),
	}
}

// loadDevice fetches a device with every relation the resolvers consult.
func (s *Server) loadDevice(id uint) (*model.Device, error) {
	var device model.Device
	err := s.db.
		Preload("DeviceType.CertificateTypes.CertificateType").
		Preload("AccessTags").
		Preload("Certificates").
		Preload("Template").
		Preload("TemplateVersion").
		Preload("VpnConnections").
		Preload("EndpointDevices.AccessTags").
		Preload("EndpointDevices.VpnConnections").
		First(&device, id).Error
	if err != nil {
		return nil, err
	}
	for i := range device.EndpointDevices {
		device.EndpointDevices[i].Device = &device
	}
	return &device, nil
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) listDevices(c *gin.Context) {
	user := currentUser(c)
	resolver := requestResolver(c)

	query := s.db.
		Preload("DeviceType.CertificateTypes.CertificateType").
		Preload("AccessTags").
		Preload("Certificates").
		Preload("Template").
		Preload("TemplateVersion").
		Preload("VpnConnections").
		Preload("EndpointDevices.AccessTags").
		Preload("EndpointDevices.VpnConnections")

	if !resolver.Scope().HasUnrestrictedAccess(user) {
		tagIDs := make([]uint, 0, len(user.AccessTags))
		for _, tag := range user.AccessTags {
			tagIDs = append(tagIDs, tag.ID)
		}
		query = query.Where("devices.id IN (?)",
			s.db.Table("device_access_tags").Select("device_id").Where("access_tag_id IN ?", tagIDs))
	}

	var devices []model.Device
	if err := query.Find(&devices).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list devices", s.logger)
		return
	}

	responses := make([]deviceResponse, 0, len(devices))
	for i := range devices {
		for j := range devices[i].EndpointDevices {
			devices[i].EndpointDevices[j].Device = &devices[i]
		}
		responses = append(responses, s.deviceResponse(c, &devices[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// fetchVisibleDevice loads the device and enforces visibility. A device
// outside the actor's scope reads as not found, never as forbidden.
func (s *Server) fetchVisibleDevice(c *gin.Context) *model.Device {
	id, ok := pathID(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid device id", s.logger)
		return nil
	}

	device, err := s.loadDevice(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "device not found", s.logger)
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load device", s.logger)
		}
		return nil
	}

	resolver := requestResolver(c)
	if !resolver.Scope().IsDeviceReachable(currentUser(c), device) {
		respondError(c, http.StatusNotFound, "device not found", s.logger)
		return nil
	}
	return device
}

func (s *Server) getDevice(c *gin.Context) {
	device := s.fetchVisibleDevice(c)
	if device == nil {
		return
	}
	c.JSON(http.StatusOK, s.deviceResponse(c, device))
}

func (s *Server) enableDevice(c *gin.Context) {
	device := s.fetchVisibleDevice(c)
	if device == nil {
		return
	}

	if reason := requestResolver(c).DeviceEnableDeny(device); reason != "" {
		respondDeny(c, reason, s.logger)
		return
	}

	if err := s.db.Model(device).Update("enabled", true).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to enable device", s.logger)
		return
	}
	device.Enabled = true

	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("device", device.Name).Msg("device enabled")
	c.JSON(http.StatusOK, s.deviceResponse(c, device))
}

func (s *Server) disableDevice(c *gin.Context) {
	device := s.fetchVisibleDevice(c)
	if device == nil {
		return
	}

	if reason := requestResolver(c).DeviceDisableDeny(device); reason != "" {
		respondDeny(c, reason, s.logger)
		return
	}

	if err := s.db.Model(device).Update("enabled", false).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to disable device", s.logger)
		return
	}
	device.Enabled = false

	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("device", device.Name).Msg("device disabled")
	c.JSON(http.StatusOK, s.deviceResponse(c, device))
}
