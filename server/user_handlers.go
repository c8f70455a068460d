package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/auth"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
)

type userResponse struct {
	*model.User
	Deny                model.Verdict              `json:"deny"`
	UseableCertificates []model.UseableCertificate `json:"useableCertificates"`
}

func (s *Server) userResponse(c *gin.Context, user *model.User) userResponse {
	resolver := requestResolver(c)
	return userResponse{
		User:                user,
		Deny:                resolver.FillUserDeny(user),
		UseableCertificates: resolver.UseableCertificates(user),
	}
}

func (s *Server) loadUser(id uint) (*model.User, error) {
	var user model.User
	err := s.db.
		Preload("AccessTags").
		Preload("VpnConnections").
		Preload("Certificates").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Server) fetchUser(c *gin.Context) *model.User {
	id, ok := pathID(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid user id", s.logger)
		return nil
	}

	user, err := s.loadUser(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "user not found", s.logger)
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load user", s.logger)
		}
		return nil
	}
	return user
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, s.userResponse(c, currentUser(c)))
}

func (s *Server) handleCurrentUserCertificates(c *gin.Context) {
	c.JSON(http.StatusOK, requestResolver(c).UseableCertificates(currentUser(c)))
}

func (s *Server) listUsers(c *gin.Context) {
	var users []model.User
	err := s.db.
		Preload("AccessTags").
		Preload("VpnConnections").
		Preload("Certificates").
		Order("username").
		Find(&users).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list users", s.logger)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for i := range users {
		responses = append(responses, s.userResponse(c, &users[i]))
	}
	c.JSON(http.StatusOK, responses)
}

func (s *Server) getUser(c *gin.Context) {
	user := s.fetchUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, s.userResponse(c, user))
}

func (s *Server) enableUser(c *gin.Context) {
	user := s.fetchUser(c)
	if user == nil {
		return
	}

	if reason := requestResolver(c).UserEnableDeny(user); reason != "" {
		respondDeny(c, reason, s.logger)
		return
	}

	if err := s.db.Model(user).Update("enabled", true).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to enable user", s.logger)
		return
	}
	user.Enabled = true

	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("user", user.Username).Msg("user enabled")
	c.JSON(http.StatusOK, s.userResponse(c, user))
}

func (s *Server) disableUser(c *gin.Context) {
	user := s.fetchUser(c)
	if user == nil {
		return
	}

	if reason := requestResolver(c).UserDisableDeny(user); reason != "" {
		respondDeny(c, reason, s.logger)
		return
	}

	if err := s.db.Model(user).Update("enabled", false).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to disable user", s.logger)
		return
	}
	user.Enabled = false

	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("user", user.Username).Msg("user disabled")
	c.JSON(http.StatusOK, s.userResponse(c, user))
}

// resetUserTotp rotates the TOTP secret so the user re-enrolls on next
// login. The old secret is invalidated in the same write.
func (s *Server) resetUserTotp(c *gin.Context) {
	user := s.fetchUser(c)
	if user == nil {
		return
	}

	if reason := requestResolver(c).UserResetTotpSecretDeny(user); reason != "" {
		respondDeny(c, reason, s.logger)
		return
	}

	secret, err := auth.GenerateTotpSecret(user.Username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to generate totp secret", s.logger)
		return
	}

	err = s.db.Model(user).Updates(map[string]any{
		"totp_secret":   secret,
		"totp_required": true,
	}).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to reset totp secret", s.logger)
		return
	}
	user.TotpSecret = secret
	user.TotpRequired = true

	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("user", user.Username).Msg("totp secret reset")
	c.JSON(http.StatusOK, s.userResponse(c, user))
}

func (s *Server) resetUserLoginAttempts(c *gin.Context) {
	user := s.fetchUser(c)
	if user == nil {
		return
	}

	if reason := requestResolver(c).UserResetLoginAttemptsDeny(user); reason != "" {
		respondDeny(c, reason, s.logger)
		return
	}

	if err := s.db.Model(user).Update("too_many_failed_login_attempts", false).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to reset login attempts", s.logger)
		return
	}
	user.TooManyFailedLoginAttempts = false

	reqLog := requestLogger(c, s.logger)
	reqLog.Info().Str("user", user.Username).Msg("login attempts reset")
	c.JSON(http.StatusOK, s.userResponse(c, user))
}
