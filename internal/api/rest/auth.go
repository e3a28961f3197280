package rest

import (
	"net/http"

	"github.com/floortrack/floortrack/internal/auth"
	"github.com/floortrack/floortrack/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/v1/auth/login
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("AUTH_400", "Phone and password are required", err.Error()))
		return
	}

	token, operator, err := s.authService.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		s.logger.Warn("Login failed", zap.String("phone", req.Phone))
		c.JSON(http.StatusUnauthorized, types.NewErrorResponse("AUTH_401", "Invalid credentials", nil))
		return
	}

	// Session cookie the dashboard sends on every request
	c.SetCookie(auth.TokenCookieName, token, int(s.lm.Config().Auth.AccessTokenTTL.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"username":     operator.Username,
			"phone":        operator.Phone,
			"profileImage": operator.ProfileImage,
		},
	})
}

// GET /api/v1/auth/me
func (s *Server) getCurrentOperator(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, types.NewErrorResponse("AUTH_401", "Not authenticated", nil))
		return
	}

	operator, err := s.authService.ResolveOperator(c.Request.Context(), claims)
	if err != nil {
		s.logger.Error("Failed to resolve operator profile",
			zap.String("phone", claims.Phone),
			zap.Error(err))
		c.JSON(http.StatusNotFound, types.NewErrorResponse("AUTH_404", "Operator not found", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":     operator.Username,
		"phone":        operator.Phone,
		"profileImage": operator.ProfileImage,
	})
}
