package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/httpx"
	"complaint-service/internal/model"
)

type DepartmentHandler struct {
	departments DepartmentAPI
}

func NewDepartmentHandler(departments DepartmentAPI) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.departments.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, departments, len(departments))
}

func (h *DepartmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	d, err := h.departments.Get(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", d)
}

func (h *DepartmentHandler) Create(c *gin.Context) {
	var req model.CreateDepartmentRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	d, err := h.departments.Create(c.Request.Context(), &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "department created", d)
}

func (h *DepartmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	var req model.UpdateDepartmentRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	d, err := h.departments.Update(c.Request.Context(), id, &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "department updated", d)
}

func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.departments.Delete(c.Request.Context(), id); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "department deleted", nil)
}
