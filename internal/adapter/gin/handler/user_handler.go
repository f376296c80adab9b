package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"account-ledger-service/internal/usecase/user"
	apperrors "account-ledger-service/pkg/errors"
)

// Plain-text bodies of the user routes.
const (
	MsgUserCreated  = "Usuario creado exitosamente"
	MsgCreateFailed = "Error al crear usuario"
	MsgListFailed   = "Error al obtener usuarios"
	MsgGetFailed    = "Error al obtener usuario"
	MsgUserUpdated  = "Usuario actualizado exitosamente"
	MsgUpdateFailed = "Error al actualizar el usuario"
	MsgUserDeleted  = "Usuario eliminado exitosamente"
	MsgDeleteFailed = "Error al eliminar usuario"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc user.UserUsecase
	responder
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, status StatusMapper, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:        uc,
		responder: newResponder(status, log),
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Nombre  string          `json:"nombre"`
	Balance decimal.Decimal `json:"balance"`
}

// UpdateUserRequest represents the HTTP request body for updating a user
type UpdateUserRequest struct {
	ID      int64            `json:"id"`
	Nombre  string           `json:"nombre"`
	Balance *decimal.Decimal `json:"balance"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID      int64           `json:"id"`
	Nombre  string          `json:"nombre"`
	Balance decimal.Decimal `json:"balance"`
}

// CreateUser handles POST /usuario
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewValidationError("", MsgCreateFailed), MsgCreateFailed)
		return
	}

	if _, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Nombre:  req.Nombre,
		Balance: req.Balance,
	}); err != nil {
		h.respondError(c, err, MsgCreateFailed)
		return
	}

	c.String(http.StatusCreated, MsgUserCreated)
}

// ListUsers handles GET /usuarios
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, MsgListFailed)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = UserResponse{
			ID:      u.ID,
			Nombre:  u.Nombre,
			Balance: u.Balance,
		}
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /usuario/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.NewValidationError("id", user.MsgInvalidID), MsgGetFailed)
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.respondError(c, err, MsgGetFailed)
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:      resp.ID,
		Nombre:  resp.Nombre,
		Balance: resp.Balance,
	})
}

// UpdateUser handles PUT /usuario
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewValidationError("", user.MsgInvalidUpdate), MsgUpdateFailed)
		return
	}

	if _, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:      req.ID,
		Nombre:  req.Nombre,
		Balance: req.Balance,
	}); err != nil {
		h.respondError(c, err, MsgUpdateFailed)
		return
	}

	c.String(http.StatusOK, MsgUserUpdated)
}

// DeleteUser handles DELETE /usuario/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.NewValidationError("id", MsgDeleteFailed), MsgDeleteFailed)
		return
	}

	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.respondError(c, err, MsgDeleteFailed)
		return
	}

	c.String(http.StatusOK, MsgUserDeleted)
}
