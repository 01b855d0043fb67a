package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/pkg/response"
	"github.com/docuvault/docuvault/internal/service"
)

type UserHandler struct {
	auth *service.AuthService
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) List(c *gin.Context) {
	if !getIsSuperuser(c) {
		handleError(c, appErr.ErrForbidden)
		return
	}
	limit, offset := parsePage(c)
	users, err := h.auth.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, users)
}

func parsePage(c *gin.Context) (limit, offset uint) {
	limit = 100
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = uint(parsed)
		}
	}
	if value := c.Query("skip"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			offset = uint(parsed)
		}
	}
	return limit, offset
}
