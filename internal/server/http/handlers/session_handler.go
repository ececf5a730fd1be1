package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GS-Pro2025/movewise/internal/server/http/dto"
	"github.com/GS-Pro2025/movewise/internal/server/http/middleware"
)

// SessionHandler processes login, logout and health probes.
type SessionHandler struct {
	facade SessionFacade
}

// NewSessionHandler creates SessionHandler instance.
func NewSessionHandler(facade SessionFacade) *SessionHandler {
	return &SessionHandler{facade: facade}
}

// Login handles POST /api/session.
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	session, token, err := h.facade.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}

	middleware.SetAuthCookie(c, token)
	respond(c, http.StatusOK, dto.SessionResponse{User: session.User, IsAdmin: session.IsAdmin, Token: token}, nil)
}

// Logout handles DELETE /api/session.
func (h *SessionHandler) Logout(c *gin.Context) {
	session := CurrentSession(c)
	if session == nil {
		c.Status(http.StatusUnauthorized)
		return
	}
	if err := h.facade.Logout(c.Request.Context(), session); err != nil {
		respondError(c, err, nil, nil)
		return
	}
	middleware.ClearAuthCookie(c)
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/session.
func (h *SessionHandler) Me(c *gin.Context) {
	session := CurrentSession(c)
	if session == nil {
		c.Status(http.StatusUnauthorized)
		return
	}
	respond(c, http.StatusOK, dto.SessionResponse{User: session.User, IsAdmin: session.IsAdmin}, nil)
}

// Health handles GET /api/health.
func (h *SessionHandler) Health(c *gin.Context) {
	if err := h.facade.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
