package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/web/service"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type SessionResponse struct {
	Token     string           `json:"token"`
	Principal domain.Principal `json:"user"`
}

// startSession issues the session cookie. It only outlives the browser when
// persistent is set.
func (h *Handler) startSession(c *gin.Context, p domain.Principal, persistent bool) (string, bool) {
	token, err := h.auth.StartSession(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	maxAge := 0
	if persistent {
		maxAge = int(h.sessionTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", false, true)
	return token, true
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Surname:  req.Surname,
		Address:  req.Address,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	token, ok := h.startSession(c, *p, false)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{Token: token, Principal: *p})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Info("login failed", slog.String("user", req.Username))
		h.fail(c, err)
		return
	}

	token, ok := h.startSession(c, *p, req.RememberMe)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Token: token, Principal: *p})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out."})
}
