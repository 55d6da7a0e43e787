package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"

	"complaint-service/internal/apperr"
	"complaint-service/internal/model"
	"complaint-service/internal/validate"
)

type ComplaintService struct {
	complaints       ComplaintStore
	departments      DepartmentStore
	files            AttachmentStore
	dispatcher       Dispatcher
	departmentScoped bool
	now              func() time.Time
}

func NewComplaintService(complaints ComplaintStore, departments DepartmentStore, files AttachmentStore, dispatcher Dispatcher, departmentScoped bool) *ComplaintService {
	return &ComplaintService{
		complaints:       complaints,
		departments:      departments,
		files:            files,
		dispatcher:       dispatcher,
		departmentScoped: departmentScoped,
		now:              time.Now,
	}
}

// scopeOf returns the department an admin is confined to, or nil when the actor sees every
// department.
func (s *ComplaintService) scopeOf(actor *model.User) *uuid.UUID {
	if !s.departmentScoped || actor.Role != model.RoleAdmin || actor.DepartmentID == nil {
		return nil
	}
	return actor.DepartmentID
}

func (s *ComplaintService) checkScope(actor *model.User, c *model.Complaint) error {
	if scope := s.scopeOf(actor); scope != nil && *scope != c.DepartmentID {
		return apperr.Authorization("complaint belongs to another department")
	}
	return nil
}

func (s *ComplaintService) ensureDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	d, err := s.departments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "department not found")
	}
	return d, nil
}

// Create files a new Open complaint for actor. Uploaded files are stored first and removed
// again if the row cannot be written.
func (s *ComplaintService) Create(ctx context.Context, actor *model.User, req *model.CreateComplaintRequest, files []*multipart.FileHeader) (*model.Complaint, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}

	if err := s.files.Check(files); err != nil {
		return nil, err
	}
	dept, err := s.ensureDepartment(ctx, *req.DepartmentID)
	if err != nil {
		return nil, err
	}

	attachments := model.Attachments{}
	if len(files) > 0 {
		if attachments, err = s.files.Save(files); err != nil {
			return nil, err
		}
	}

	now := s.now()
	c := &model.Complaint{
		ID:           uuid.New(),
		UserID:       actor.ID,
		DepartmentID: dept.ID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       model.StatusOpen,
		Priority:     req.Priority,
		Attachments:  attachments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		s.files.Remove(attachments)
		if isReferenced(err) {
			return nil, apperr.NotFound("department not found")
		}
		return nil, apperr.Unexpected("failed to create complaint", err)
	}

	c.User = &model.UserSummary{ID: actor.ID, Username: actor.Username, Email: actor.Email}
	c.Department = dept

	s.dispatcher.Dispatch(ctx, s.event(model.EventComplaintCreated, c, ""))
	return c, nil
}

// ReadOne answers Authorization to an unprivileged caller whether the complaint is missing or
// owned by someone else, so complaint ids cannot be probed.
func (s *ComplaintService) ReadOne(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) && !actor.Role.Privileged() {
			return nil, apperr.Authorization("not authorized to view this complaint")
		}
		return nil, notFoundOr(err, "complaint not found")
	}

	if c.UserID == actor.ID {
		return c, nil
	}
	if !actor.Role.Privileged() {
		return nil, apperr.Authorization("not authorized to view this complaint")
	}
	if err := s.checkScope(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ComplaintService) ReadMineForUser(ctx context.Context, actor *model.User) ([]model.Complaint, error) {
	complaints, err := s.complaints.FindByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load complaints", err)
	}
	return complaints, nil
}

// ReadAllForAdmin lists complaints newest first. A department-scoped admin only ever sees
// their own department, whatever the filter asks for.
func (s *ComplaintService) ReadAllForAdmin(ctx context.Context, actor *model.User, filter model.ComplaintFilter) ([]model.Complaint, error) {
	if !actor.Role.Privileged() {
		return nil, apperr.Authorization("admin access required")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperr.Validationf("unknown status %q", *filter.Status)
	}
	if scope := s.scopeOf(actor); scope != nil {
		filter.DepartmentID = scope
	}

	complaints, err := s.complaints.FindAll(ctx, filter)
	if err != nil {
		return nil, apperr.Unexpected("failed to load complaints", err)
	}
	return complaints, nil
}

func (s *ComplaintService) loadOwned(ctx context.Context, actor *model.User, id uuid.UUID, action string) (*model.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "complaint not found")
	}
	if c.UserID != actor.ID {
		return nil, apperr.Authorization("only the complaint owner can " + action + " it")
	}
	return c, nil
}

// UpdateContent changes the owner-editable fields. New attachments replace the old set; the
// replaced files are removed only after the row is updated.
func (s *ComplaintService) UpdateContent(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateComplaintRequest, files []*multipart.FileHeader) (*model.Complaint, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	c, err := s.loadOwned(ctx, actor, id, "edit")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		c.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return nil, apperr.Validation("description cannot be empty")
		}
		c.Description = description
	}
	if req.Priority != nil {
		c.Priority = *req.Priority
	}
	if req.DepartmentID != nil && *req.DepartmentID != c.DepartmentID {
		dept, err := s.ensureDepartment(ctx, *req.DepartmentID)
		if err != nil {
			return nil, err
		}
		c.DepartmentID = dept.ID
		c.Department = dept
	}

	var replaced model.Attachments
	replacing := len(files) > 0
	if replacing {
		saved, err := s.files.Save(files)
		if err != nil {
			return nil, err
		}
		replaced = c.Attachments
		c.Attachments = saved
	}

	if err := s.complaints.UpdateContent(ctx, c); err != nil {
		if replacing {
			s.files.Remove(c.Attachments)
		}
		if isReferenced(err) {
			return nil, apperr.NotFound("department not found")
		}
		return nil, notFoundOr(err, "complaint not found")
	}
	s.files.Remove(replaced)

	return c, nil
}

// UpdateStatus commits the transition first; the owner's email and notification follow
// asynchronously and only when the status actually changed.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Complaint, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperr.Validationf("invalid status %q", req.Status)
	}

	c, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "complaint not found")
	}
	if err := s.checkScope(actor, c); err != nil {
		return nil, err
	}

	old, err := s.complaints.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, notFoundOr(err, "complaint not found")
	}

	updated, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "complaint not found")
	}

	if old != req.Status {
		s.dispatcher.Dispatch(ctx, s.event(model.EventComplaintStatusUpdated, updated, old))
	}
	return updated, nil
}

func (s *ComplaintService) MarkSeen(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "complaint not found")
	}
	if err := s.checkScope(actor, c); err != nil {
		return nil, err
	}

	if err := s.complaints.MarkSeen(ctx, id); err != nil {
		return nil, notFoundOr(err, "complaint not found")
	}
	c.Seen = true
	return c, nil
}

// Delete removes the complaint, then its files. File removal never fails the request.
func (s *ComplaintService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	c, err := s.loadOwned(ctx, actor, id, "delete")
	if err != nil {
		return err
	}

	if err := s.complaints.Delete(ctx, id); err != nil {
		return notFoundOr(err, "complaint not found")
	}
	s.files.Remove(c.Attachments)
	return nil
}

func (s *ComplaintService) event(eventType string, c *model.Complaint, old model.ComplaintStatus) model.ComplaintEvent {
	e := model.ComplaintEvent{
		MessageID:    uuid.NewString(),
		Type:         eventType,
		ComplaintID:  c.ID,
		Title:        c.Title,
		OwnerID:      c.UserID,
		DepartmentID: c.DepartmentID,
		OldStatus:    old,
		NewStatus:    c.Status,
		OccurredAt:   s.now(),
	}
	if c.User != nil {
		e.OwnerEmail = c.User.Email
		e.OwnerName = c.User.Username
	}
	return e
}
