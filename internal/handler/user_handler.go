package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/httpx"
	"complaint-service/internal/model"
)

// UserHandler serves the super-admin account endpoints.
type UserHandler struct {
	users UserAPI
}

func NewUserHandler(users UserAPI) *UserHandler {
	return &UserHandler{users: users}
}

// Handles GET /super-admin/users?role=admin.
func (h *UserHandler) List(c *gin.Context) {
	var role *model.Role
	if v := c.Query("role"); v != "" {
		r := model.Role(v)
		role = &r
	}

	users, err := h.users.List(c.Request.Context(), role)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, users, len(users))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "user created", user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	var req model.UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "user updated", user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "user deleted", nil)
}
