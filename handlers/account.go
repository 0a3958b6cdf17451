package handlers

import (
	"errors"
	"net/http"

	"smovers/middleware"
	"smovers/models"
	"smovers/services/account"
	"smovers/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountHandler serves the account endpoints of a single role.
type AccountHandler struct {
	Service *account.Service
	Role    models.Role
}

// NewAccountHandler creates an AccountHandler for role.
func NewAccountHandler(svc *account.Service, role models.Role) *AccountHandler {
	return &AccountHandler{Service: svc, Role: role}
}

// Bundle returns the handlers in the shape routes expects.
func (h *AccountHandler) Bundle() RoleHandlers {
	return RoleHandlers{
		Register:       h.RegisterHandler,
		Login:          h.LoginHandler,
		Logout:         h.LogoutHandler,
		Profile:        h.ProfileHandler,
		UpdateProfile:  h.UpdateProfileHandler,
		UpdatePassword: h.UpdatePasswordHandler,
		Delete:         h.DeleteHandler,
	}
}

type authResponse struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"token"`
}

// RegisterHandler handles POST /api/<role>.
func (h *AccountHandler) RegisterHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.AccountRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", "Invalid request: "+err.Error())
		return
	}

	acct, token, err := h.Service.Register(c.Request.Context(), h.Role, req)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			utils.JSONError(c, http.StatusConflict, "email_taken", err.Error())
			return
		}
		if errors.Is(err, account.ErrWeakPassword) {
			utils.JSONError(c, http.StatusBadRequest, "validation", err.Error())
			return
		}
		logger.Error("Registration failed", zap.String("role", string(h.Role)), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "unexpected", "Registration failed, please try again")
		return
	}
	c.JSON(http.StatusCreated, authResponse{Account: acct, Token: token})
}

// LoginHandler handles POST /api/<role>/login.
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	logger := getLogger(c)

	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", "Invalid request: "+err.Error())
		return
	}

	acct, token, err := h.Service.Authenticate(c.Request.Context(), h.Role, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			utils.JSONError(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}
		logger.Error("Login failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "unexpected", "Login failed, please try again")
		return
	}
	c.JSON(http.StatusOK, authResponse{Account: acct, Token: token})
}

// LogoutHandler handles GET /api/<role>/logout.
func (h *AccountHandler) LogoutHandler(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), c.GetString(middleware.CtxToken)); err != nil {
		getLogger(c).Error("Logout failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "unexpected", "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ProfileHandler handles GET /api/<role>/profile.
func (h *AccountHandler) ProfileHandler(c *gin.Context) {
	id, _ := middleware.CurrentAccount(c)
	acct, err := h.Service.GetByID(c.Request.Context(), h.Role, id)
	if err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

// UpdateProfileHandler handles PATCH /api/<role>/profile.
func (h *AccountHandler) UpdateProfileHandler(c *gin.Context) {
	var req models.AccountUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", "Invalid request: "+err.Error())
		return
	}
	id, _ := middleware.CurrentAccount(c)
	acct, err := h.Service.Update(c.Request.Context(), h.Role, id, req)
	if err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

// UpdatePasswordHandler handles PATCH /api/<role>/password.
func (h *AccountHandler) UpdatePasswordHandler(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", "Invalid request: "+err.Error())
		return
	}
	id, _ := middleware.CurrentAccount(c)
	if err := h.Service.UpdatePassword(c.Request.Context(), h.Role, id, req.CurrentPassword, req.NewPassword); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// DeleteHandler handles DELETE /api/<role>. The password must be confirmed.
func (h *AccountHandler) DeleteHandler(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", "Invalid request: "+err.Error())
		return
	}
	id, _ := middleware.CurrentAccount(c)
	if err := h.Service.Delete(c.Request.Context(), h.Role, id, req.Password); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

func (h *AccountHandler) accountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "not_found", "Account not found")
	case errors.Is(err, account.ErrInvalidCredentials):
		utils.JSONError(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, account.ErrEmailTaken):
		utils.JSONError(c, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, account.ErrWeakPassword):
		utils.JSONError(c, http.StatusBadRequest, "validation", err.Error())
	default:
		getLogger(c).Error("Account operation failed", zap.String("role", string(h.Role)), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "unexpected", "Something went wrong, please try again")
	}
}
