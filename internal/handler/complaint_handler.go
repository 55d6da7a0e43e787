package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"complaint-service/internal/apperr"
	"complaint-service/internal/httpx"
	"complaint-service/internal/middleware"
	"complaint-service/internal/model"
)

const attachmentsField = "attachments"

type ComplaintHandler struct {
	complaints ComplaintAPI
}

func NewComplaintHandler(complaints ComplaintAPI) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formValue returns a pointer to the field's value, or nil when the field was not sent.
func formValue(c *gin.Context, name string) *string {
	v, ok := c.GetPostForm(name)
	if !ok {
		return nil
	}
	return &v
}

func formUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	v := formValue(c, name)
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*v))
	if err != nil {
		return nil, apperr.Validationf("invalid %s", name)
	}
	return &id, nil
}

func uploadedFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.Validation("invalid multipart form")
	}
	return form.File[attachmentsField], nil
}

// Complaint bodies arrive as multipart forms when files are attached and as JSON otherwise.
func (h *ComplaintHandler) parseCreate(c *gin.Context) (*model.CreateComplaintRequest, []*multipart.FileHeader, error) {
	var req model.CreateComplaintRequest
	if !isMultipart(c) {
		return &req, nil, bindJSON(c, &req)
	}

	files, err := uploadedFiles(c)
	if err != nil {
		return nil, nil, err
	}
	req.Title = c.PostForm("title")
	req.Description = c.PostForm("description")
	req.Priority = model.Priority(c.PostForm("priority"))
	if req.DepartmentID, err = formUUID(c, "department_id"); err != nil {
		return nil, nil, err
	}
	return &req, files, nil
}

func (h *ComplaintHandler) parseUpdate(c *gin.Context) (*model.UpdateComplaintRequest, []*multipart.FileHeader, error) {
	var req model.UpdateComplaintRequest
	if !isMultipart(c) {
		return &req, nil, bindJSON(c, &req)
	}

	files, err := uploadedFiles(c)
	if err != nil {
		return nil, nil, err
	}
	req.Title = formValue(c, "title")
	req.Description = formValue(c, "description")
	if p := formValue(c, "priority"); p != nil && *p != "" {
		priority := model.Priority(*p)
		req.Priority = &priority
	}
	if req.DepartmentID, err = formUUID(c, "department_id"); err != nil {
		return nil, nil, err
	}
	return &req, files, nil
}

// Handles POST /complaints.
func (h *ComplaintHandler) Create(c *gin.Context) {
	req, files, err := h.parseCreate(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	complaint, err := h.complaints.Create(c.Request.Context(), middleware.CurrentUser(c), req, files)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "complaint submitted", complaint)
}

// Handles GET /complaints/my.
func (h *ComplaintHandler) Mine(c *gin.Context) {
	complaints, err := h.complaints.ReadMineForUser(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, complaints, len(complaints))
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	complaint, err := h.complaints.ReadOne(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", complaint)
}

func (h *ComplaintHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	req, files, err := h.parseUpdate(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	complaint, err := h.complaints.UpdateContent(c.Request.Context(), middleware.CurrentUser(c), id, req, files)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "complaint updated", complaint)
}

func (h *ComplaintHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.complaints.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "complaint deleted", nil)
}

// Handles GET /complaints/admin/all and GET /admin/complaints. Optional query filters:
// department_id, status, seen.
func (h *ComplaintHandler) AdminList(c *gin.Context) {
	var filter model.ComplaintFilter

	if v := c.Query("department_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.Error(c, apperr.Validation("invalid department_id"))
			return
		}
		filter.DepartmentID = &id
	}
	if v := c.Query("status"); v != "" {
		status := model.ComplaintStatus(v)
		filter.Status = &status
	}
	if v := c.Query("seen"); v != "" {
		seen, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Error(c, apperr.Validation("invalid seen flag"))
			return
		}
		filter.Seen = &seen
	}

	complaints, err := h.complaints.ReadAllForAdmin(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, complaints, len(complaints))
}

// Handles PATCH /admin/complaints/:id/status.
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	var req model.UpdateStatusRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	complaint, err := h.complaints.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "status updated", complaint)
}

func (h *ComplaintHandler) MarkSeen(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	complaint, err := h.complaints.MarkSeen(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "complaint marked as seen", complaint)
}
