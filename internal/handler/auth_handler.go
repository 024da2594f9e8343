package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type authService interface {
	Signin(ctx context.Context, rawApp string, req models.SigninRequest) (*models.SigninResponse, error)
	Signout(ctx context.Context, sessionID string) error
}

// AuthHandler wires sign-in, sign-out and session preferences.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Signin godoc
// @Summary Sign in to a portal app
// @Description Authenticates against the backend namespace of the app and opens a portal session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param app path string true "students, department-admin, university-admin or super-admin"
// @Param payload body models.SigninRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/{app}/signin [post]
func (h *AuthHandler) Signin(c *gin.Context) {
	var req models.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid sign-in payload"))
		return
	}

	res, err := h.service.Signin(c.Request.Context(), c.Param("app"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Signout godoc
// @Summary Sign out
// @Description Clears the session's application context and discards its workspace
// @Tags Authentication
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/signout [post]
func (h *AuthHandler) Signout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Signout(c.Request.Context(), claims.SessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type preferencesPayload struct {
	SidebarCollapsed *bool `json:"sidebar_collapsed"`
}

type sessionPayload struct {
	Profile     *models.Profile    `json:"profile"`
	Preferences models.Preferences `json:"preferences"`
}

// Preferences godoc
// @Summary Current session
// @Description Returns the signed-in profile and persisted UI preferences
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /session/preferences [get]
func (h *AuthHandler) Preferences(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	state := ws.Context().State()
	response.JSON(c, http.StatusOK, sessionPayload{Profile: state.Profile, Preferences: state.Preferences}, nil)
}

// UpdatePreferences godoc
// @Summary Update UI preferences
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body preferencesPayload true "Preferences"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /session/preferences [patch]
func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload preferencesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid preferences payload"))
		return
	}
	if payload.SidebarCollapsed != nil {
		if err := ws.Context().SetSidebarCollapsed(c.Request.Context(), *payload.SidebarCollapsed); err != nil {
			response.Error(c, err)
			return
		}
	}
	state := ws.Context().State()
	response.JSON(c, http.StatusOK, sessionPayload{Profile: state.Profile, Preferences: state.Preferences}, nil)
}
