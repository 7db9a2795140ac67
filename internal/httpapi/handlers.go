package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierr "github.com/arga-sso/ssoauthority/internal/errors"
	"github.com/arga-sso/ssoauthority/internal/models"
	"github.com/arga-sso/ssoauthority/internal/orchestrator"
	"github.com/arga-sso/ssoauthority/internal/validator"
)

// loginRequestFrom builds an orchestrator.LoginRequest from the common
// fields every login-type body carries, plus the calling client's IP.
func loginRequestFrom(c *gin.Context, clientID, deviceID string, device *models.DeviceInfo, pushToken string) orchestrator.LoginRequest {
	return orchestrator.LoginRequest{
		ClientID:  clientID,
		DeviceID:  deviceID,
		Device:    device,
		IP:        c.ClientIP(),
		PushToken: pushToken,
	}
}

func (s *Server) loginEmail(c *gin.Context) {
	var req models.LoginEmailRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}

	outcome, err := s.orch.LoginWithEmail(c.Request.Context(), req.Email, req.Password,
		loginRequestFrom(c, req.ClientID, req.DeviceID, req.Device, ""))
	if err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) loginFirebase(c *gin.Context) {
	var req models.LoginFirebaseRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}

	outcome, err := s.orch.LoginWithFirebase(c.Request.Context(), req.IDToken,
		loginRequestFrom(c, req.ClientID, req.DeviceID, req.Device, ""))
	if err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) loginGoogleStart(c *gin.Context) {
	state := c.Query("state")
	authURL, err := s.orch.GoogleAuthCodeURL(state)
	if err != nil {
		apierr.HandleError(c, apierr.NewWithDetails(apierr.CodeInternal, "google login is not configured", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

func (s *Server) loginGoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		apierr.HandleError(c, apierr.ValidationError("missing code"))
		return
	}

	clientID := c.Query("client_id")
	deviceID := c.Query("device_id")

	outcome, err := s.orch.LoginWithGoogleCode(c.Request.Context(), code,
		loginRequestFrom(c, clientID, deviceID, nil, ""))
	if err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) exchange(c *gin.Context) {
	var req models.ExchangeRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}

	outcome, err := s.orch.Exchange(c.Request.Context(), req.SSOToken,
		loginRequestFrom(c, req.ClientID, req.DeviceID, req.Device, ""))
	if err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}

	outcome, err := s.orch.Refresh(c.Request.Context(), req.RefreshToken, req.DeviceID)
	if err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) logoutAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		apierr.HandleError(c, apierr.InvalidToken())
		return
	}
	if err := s.orch.LogoutAll(c.Request.Context(), claims.Subject); err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) logoutSSO(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		apierr.HandleError(c, apierr.InvalidToken())
		return
	}
	if err := s.orch.LogoutSSO(c.Request.Context(), claims.Subject); err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) logoutClient(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		apierr.HandleError(c, apierr.InvalidToken())
		return
	}

	clientID := c.GetHeader("X-Client-ID")
	if clientID == "" {
		apierr.HandleError(c, apierr.ValidationError("X-Client-ID header is required"))
		return
	}
	deviceID := c.GetHeader("X-Device-ID")

	var err error
	if deviceID != "" {
		err = s.orch.LogoutClientDevice(c.Request.Context(), claims.Subject, clientID, deviceID)
	} else {
		err = s.orch.LogoutClient(c.Request.Context(), claims.Subject, clientID)
	}
	if err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) validate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		apierr.HandleError(c, apierr.InvalidToken())
		return
	}
	c.JSON(http.StatusOK, models.LoginUser{
		ID:          claims.Subject,
		Role:        claims.Role,
		Name:        claims.Name,
		Email:       claims.Email,
		AvatarURL:   claims.AvatarURL,
		AllowedApps: claims.AllowedApps,
	})
}

func (s *Server) sessions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		apierr.HandleError(c, apierr.InvalidToken())
		return
	}
	resp, err := s.orch.Sessions(c.Request.Context(), claims.Subject)
	if err != nil {
		apierr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) jwks(c *gin.Context) {
	c.JSON(http.StatusOK, s.codec.JWKS())
}
