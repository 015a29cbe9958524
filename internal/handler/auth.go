package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"rollcall/api/internal/model"
	"rollcall/api/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a bearer token
// @Summary Login
// @Description Authenticate with email and password, returns a JWT
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body model.LoginRequest true "Credentials"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.authService.RecordLogin(0, req.Email, c.ClientIP(), c.Request.UserAgent(), false, "invalid credentials")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	h.authService.RecordLogin(user.ID, user.Email, c.ClientIP(), c.Request.UserAgent(), true, "")

	c.JSON(http.StatusOK, model.LoginResponse{
		Message: "Login successful",
		User:    *user,
		Token:   token,
	})
}

// Logout revokes the presented token
// @Summary Logout
// @Description Revoke the current bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := currentUser(c)

	if val, exists := c.Get("claims"); exists {
		if claims, ok := val.(jwt.MapClaims); ok {
			jti, _ := claims["jti"].(string)
			exp, _ := claims["exp"].(float64)
			h.authService.RevokeToken(c.Request.Context(), jti, time.Unix(int64(exp), 0))
		}
	}

	if user != nil {
		h.authService.RecordLogout(user.ID, user.Email, c.ClientIP())
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the authenticated user
// @Summary Current user
// @Description Get the authenticated user. Workers also get their ward's team lead.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /auth/user [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	resp := gin.H{"user": user}

	// Workers see who their team lead is.
	if user.IsWorker() && user.WardID != nil {
		lead, err := h.authService.TeamLeadForWard(*user.WardID)
		if err == nil && lead != nil {
			resp["team_lead"] = lead
		}
	}

	c.JSON(http.StatusOK, resp)
}
