package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/service/auth"
)

// AuthService is the sign-in surface used over HTTP.
type AuthService interface {
	SessionResumer
	NewSession() *auth.Session
	SignInWithPassword(ctx context.Context, sess *auth.Session, email, password string) error
	SignOut(ctx context.Context, sess *auth.Session) error
}

// AuthHandler serves sign-in, sign-out and the current user.
type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs the auth HTTP handler.
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges email and password for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	sess := h.svc.NewSession()
	if err := h.svc.SignInWithPassword(c.Request.Context(), sess, req.Email, req.Password); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	user, _ := sess.User()
	respondOK(c, http.StatusOK, "signed in", loginResponse{Token: sess.Token(), User: user})
}

// Logout revokes the bearer token of the request.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessionFrom(c)
	if sess == nil {
		RespondError(c, h.logger, models.ErrUnauthorized)
		return
	}

	if err := h.svc.SignOut(c.Request.Context(), sess); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "signed out", nil)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	sess := sessionFrom(c)
	if sess == nil {
		RespondError(c, h.logger, models.ErrUnauthorized)
		return
	}
	user, _ := sess.User()
	respondOK(c, http.StatusOK, "", user)
}

// Catalog returns the shared product, size and role lists.
func Catalog(c *gin.Context) {
	roles := []models.Role{models.RoleIntake, models.RoleGrading, models.RoleSecretary, models.RoleAdmin}
	respondOK(c, http.StatusOK, "", gin.H{
		"product_types":   models.ProductTypes,
		"size_categories": models.SizeCategories,
		"roles":           roles,
	})
}
