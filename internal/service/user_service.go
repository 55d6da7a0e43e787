package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"complaint-service/internal/apperr"
	"complaint-service/internal/model"
	"complaint-service/internal/validate"
)

// UserService is the super-admin's account management.
type UserService struct {
	users       UserStore
	departments *DepartmentService
	complaints  ComplaintStore
	files       AttachmentStore
}

func NewUserService(users UserStore, departments *DepartmentService, complaints ComplaintStore, files AttachmentStore) *UserService {
	return &UserService{users: users, departments: departments, complaints: complaints, files: files}
}

func (s *UserService) List(ctx context.Context, role *model.Role) ([]model.User, error) {
	if role != nil && !role.Valid() {
		return nil, apperr.Validationf("unknown role %q", *role)
	}
	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, apperr.Unexpected("failed to load users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return u, nil
}

// Create adds a pre-verified user or admin. Admins with a department take a seat.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if err := ensureUnique(ctx, s.users, req.Username, req.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         req.Role,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.Role == model.RoleAdmin && req.DepartmentID != nil {
		if err := s.departments.AssignAdmin(ctx, user, true, *req.DepartmentID); err != nil {
			return nil, err
		}
		return s.Get(ctx, user.ID)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, userConflict(err)
		}
		return nil, apperr.Unexpected("failed to create user", err)
	}
	return user, nil
}

// Update changes identity, role and department. A superadmin's role is fixed and no one is
// promoted to superadmin. Department membership only survives for admins.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	var username, email string
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, apperr.Validation("username cannot be blank")
		}
		req.Username = &username
	}
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
		if email == "" {
			return nil, apperr.Validation("email cannot be blank")
		}
		req.Email = &email
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}

	if req.Role != nil && *req.Role != user.Role {
		if user.Role == model.RoleSuperAdmin {
			return nil, apperr.Authorization("the superadmin role cannot be changed")
		}
		if *req.Role == model.RoleSuperAdmin {
			return nil, apperr.Authorization("the superadmin role cannot be granted")
		}
		user.Role = *req.Role
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	if err := ensureUnique(ctx, s.users, username, email, user.ID); err != nil {
		return nil, err
	}

	switch {
	case req.ClearDepartment:
		user.DepartmentID = nil
	case req.DepartmentID != nil:
		dept := *req.DepartmentID
		user.DepartmentID = &dept
	}
	if user.Role != model.RoleAdmin {
		user.DepartmentID = nil
	}
	user.Department = nil

	if user.Role == model.RoleAdmin && user.DepartmentID != nil {
		if err := s.departments.AssignAdmin(ctx, user, false, *user.DepartmentID); err != nil {
			return nil, err
		}
	} else if err := s.users.Update(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, userConflict(err)
		}
		return nil, notFoundOr(err, "user not found")
	}

	return s.Get(ctx, user.ID)
}

// Delete removes a non-superadmin account together with its complaints, their files and
// its notifications.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "user not found")
	}
	if user.Role == model.RoleSuperAdmin {
		return apperr.Authorization("a superadmin cannot be deleted")
	}

	attachments, err := s.complaints.AttachmentsByUser(ctx, id)
	if err != nil {
		return apperr.Unexpected("failed to load user complaints", err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return notFoundOr(err, "user not found")
	}

	s.files.Remove(attachments)
	return nil
}
