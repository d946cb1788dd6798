package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/catalog-api/backend/internal/model"
	"github.com/catalog-api/backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary Register a new user
// @Description The role field is only honoured when APP_ENV is test.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "New account"
// @Success 201 {object} model.UserEnvelope
// @Failure 400 {object} model.StatusResponse
// @Failure 429 {object} model.StatusResponse
// @Failure 500 {object} model.StatusResponse
// @Router /api/users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.UserEnvelope{Status: statusSuccess, Data: user.Sanitize()})
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.StatusResponse
// @Failure 401 {object} model.StatusResponse
// @Failure 500 {object} model.StatusResponse
// @Router /api/users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{Status: statusSuccess, Token: token, Data: user.Sanitize()})
}

// Me godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserEnvelope
// @Failure 401 {object} model.StatusResponse
// @Router /api/users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeFail(c, http.StatusUnauthorized, service.ReasonMissingCredential.Message(service.SchemeBearer))
		return
	}
	c.JSON(http.StatusOK, model.UserEnvelope{Status: statusSuccess, Data: user.Sanitize()})
}

// CreateAPIKey godoc
// @Summary Generate an API key
// @Description Replaces any previous key. The raw key is only returned once.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIKeyResponse
// @Failure 401 {object} model.StatusResponse
// @Failure 404 {object} model.StatusResponse
// @Failure 500 {object} model.StatusResponse
// @Router /api/users/api-key [post]
func (h *AuthHandler) CreateAPIKey(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeFail(c, http.StatusUnauthorized, service.ReasonMissingCredential.Message(service.SchemeBearer))
		return
	}

	issued, err := h.svc.IssueAPIKey(c.Request.Context(), user.ID)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.APIKeyResponse{
		Status:    statusSuccess,
		APIKey:    issued.Key,
		ExpiresAt: issued.ExpiresAt,
	})
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Description Tokens issued before the change stop working. A new token is returned.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.StatusResponse
// @Failure 401 {object} model.StatusResponse
// @Failure 500 {object} model.StatusResponse
// @Router /api/users/me/password [patch]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeFail(c, http.StatusUnauthorized, service.ReasonMissingCredential.Message(service.SchemeBearer))
		return
	}

	var req model.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, token, err := h.svc.ChangePassword(c.Request.Context(), user.ID, req)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{Status: statusSuccess, Token: token, Data: updated.Sanitize()})
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConflict):
		abortWithError(c, NewAppError(http.StatusBadRequest, "Email already in use"))
	case errors.Is(err, service.ErrInvalidInput):
		abortWithError(c, NewAppError(http.StatusBadRequest, "Invalid input"))
	case errors.Is(err, service.ErrUnauthorized):
		abortWithError(c, NewAppError(http.StatusUnauthorized, "Incorrect email or password"))
	case errors.Is(err, service.ErrIncorrectPassword):
		abortWithError(c, NewAppError(http.StatusUnauthorized, "Your current password is wrong"))
	case errors.Is(err, model.ErrNotFound):
		abortWithError(c, NewAppError(http.StatusNotFound, "User not found"))
	default:
		abortWithError(c, err)
	}
}
