package api

import (
	"net/http"

	reqdto "shuttle-booking/internal/handler/dto/request"
	resdto "shuttle-booking/internal/handler/dto/response"
	"shuttle-booking/internal/pkg/config"
	"shuttle-booking/internal/pkg/jwt"
	"shuttle-booking/internal/pkg/password"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues admin tokens. There is a single admin credential
// configured as a bcrypt hash; no user table exists.
type AuthHandler struct {
	jwtService *jwt.Service
	adminCfg   config.AdminConfig
}

func NewAuthHandler(jwtService *jwt.Service, adminCfg config.AdminConfig) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		adminCfg:   adminCfg,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := password.ComparePassword(h.adminCfg.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid password",
		})
		return
	}

	token, err := h.jwtService.GenerateAdminToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.LoginResponse{Token: token})
}
