package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"complaint-service/internal/apperr"
	"complaint-service/internal/model"
	"complaint-service/internal/validate"
)

type DepartmentService struct {
	departments DepartmentStore
	users       UserStore
	maxAdmins   int
}

func NewDepartmentService(departments DepartmentStore, users UserStore, maxAdmins int) *DepartmentService {
	return &DepartmentService{departments: departments, users: users, maxAdmins: maxAdmins}
}

// AdminSeatAvailable reports whether a department that already seats `seated` other admins
// can take one more.
func AdminSeatAvailable(seated, maxAdmins int) bool {
	return seated < maxAdmins
}

func (s *DepartmentService) seatCheck(seated int) error {
	if !AdminSeatAvailable(seated, s.maxAdmins) {
		return apperr.Capacity("department already has the maximum number of admins")
	}
	return nil
}

// AssignAdmin saves user as an admin of departmentID, creating the row when isNew. It is the
// only path that writes an admin's department, so both user creation and user update go
// through the same capacity rule.
func (s *DepartmentService) AssignAdmin(ctx context.Context, user *model.User, isNew bool, departmentID uuid.UUID) error {
	dept := departmentID
	user.Role = model.RoleAdmin
	user.DepartmentID = &dept

	err := s.users.SaveWithSeatCheck(ctx, user, isNew, departmentID, s.seatCheck)
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case isNotFound(err):
		if isNew {
			return apperr.NotFound("department not found")
		}
		// Either the department or the user vanished; tell them apart.
		if _, derr := s.departments.FindByID(ctx, departmentID); derr != nil {
			return apperr.NotFound("department not found")
		}
		return apperr.NotFound("user not found")
	case isDuplicate(err):
		return userConflict(err)
	default:
		return apperr.Unexpected("failed to save admin", err)
	}
}

func (s *DepartmentService) List(ctx context.Context) ([]model.DepartmentSummary, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperr.Unexpected("failed to load departments", err)
	}
	return departments, nil
}

func (s *DepartmentService) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	d, err := s.departments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "department not found")
	}
	return d, nil
}

// ensureNameFree matches names case-insensitively, ignoring the department being renamed.
func (s *DepartmentService) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.departments.FindByName(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return apperr.Unexpected("database error", err)
	}
	if existing.ID != self {
		return apperr.Conflictf("department %q already exists", existing.Name)
	}
	return nil
}

func (s *DepartmentService) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	now := time.Now()
	d := &model.Department{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.departments.Create(ctx, d); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflictf("department %q already exists", d.Name)
		}
		return nil, apperr.Unexpected("failed to create department", err)
	}
	return d, nil
}

func (s *DepartmentService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDepartmentRequest) (*model.Department, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	d, err := s.departments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "department not found")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		d.Name = name
	}
	if req.Description != nil {
		d.Description = strings.TrimSpace(*req.Description)
	}
	d.UpdatedAt = time.Now()

	if err := s.departments.Update(ctx, d); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflictf("department %q already exists", d.Name)
		}
		return nil, notFoundOr(err, "department not found")
	}
	return d, nil
}

// Delete refuses while any complaint or admin still references the department.
func (s *DepartmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.departments.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "department not found")
	}

	complaints, admins, err := s.departments.ReferenceCounts(ctx, id)
	if err != nil {
		return apperr.Unexpected("failed to check department references", err)
	}
	if complaints > 0 || admins > 0 {
		return apperr.Conflictf("cannot delete department: it has %d complaint(s) and %d admin(s)", complaints, admins)
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		if isReferenced(err) {
			return apperr.Conflict("cannot delete department: it is still referenced")
		}
		return notFoundOr(err, "department not found")
	}
	return nil
}
