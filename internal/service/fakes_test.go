package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"complaint-service/internal/apperr"
	"complaint-service/internal/mailer"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

// memDB backs the in-memory stores below so that joins and reference counts behave like the
// Postgres repositories.
type memDB struct {
	mu            sync.Mutex
	users         map[uuid.UUID]model.User
	departments   map[uuid.UUID]model.Department
	complaints    map[uuid.UUID]model.Complaint
	feedback      []model.Feedback
	notifications map[uuid.UUID]model.Notification
}

func newMemDB() *memDB {
	return &memDB{
		users:         map[uuid.UUID]model.User{},
		departments:   map[uuid.UUID]model.Department{},
		complaints:    map[uuid.UUID]model.Complaint{},
		notifications: map[uuid.UUID]model.Notification{},
	}
}

func (db *memDB) addUser(username string, role model.Role, dept *uuid.UUID) *model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@campus.test",
		Role:         role,
		DepartmentID: dept,
		IsVerified:   true,
		CreatedAt:    time.Now(),
	}
	db.users[u.ID] = u
	return &u
}

func (db *memDB) addDepartment(name string) *model.Department {
	db.mu.Lock()
	defer db.mu.Unlock()
	d := model.Department{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	db.departments[d.ID] = d
	return &d
}

func (db *memDB) addComplaint(owner *model.User, dept *model.Department, status model.ComplaintStatus) *model.Complaint {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := time.Now()
	c := model.Complaint{
		ID:           uuid.New(),
		UserID:       owner.ID,
		DepartmentID: dept.ID,
		Title:        "Broken projector",
		Description:  "Room 204",
		Status:       status,
		Priority:     model.PriorityMedium,
		Attachments:  model.Attachments{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db.complaints[c.ID] = c
	return &c
}

func (db *memDB) complaint(id uuid.UUID) model.Complaint {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.complaints[id]
}

func (db *memDB) notificationsFor(userID uuid.UUID) []model.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Notification
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type memUsers struct{ db *memDB }

func (s memUsers) taken(u *model.User) bool {
	for _, other := range s.db.users {
		if other.ID != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return true
		}
	}
	return false
}

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.taken(u) {
		return repository.ErrDuplicate
	}
	s.db.users[u.ID] = *u
	return nil
}

func (s memUsers) find(match func(model.User) bool) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if match(u) {
			if u.DepartmentID != nil {
				if d, ok := s.db.departments[*u.DepartmentID]; ok {
					u.Department = &d
				}
			}
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.ID == id })
}

func (s memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.Email == email })
}

func (s memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.Username == username })
}

func (s memUsers) List(_ context.Context, role *model.Role) ([]model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.User{}
	for _, u := range s.db.users {
		if role == nil || u.Role == *role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s memUsers) ListAdminsByDepartment(_ context.Context, departmentID uuid.UUID) ([]model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.User{}
	for _, u := range s.db.users {
		if u.Role == model.RoleAdmin && u.DepartmentID != nil && *u.DepartmentID == departmentID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s memUsers) Update(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.update(u)
}

func (s memUsers) update(u *model.User) error {
	if _, ok := s.db.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	if s.taken(u) {
		return repository.ErrDuplicate
	}
	stored := *u
	stored.Department = nil
	s.db.users[u.ID] = stored
	return nil
}

func (s memUsers) SaveWithSeatCheck(_ context.Context, u *model.User, isNew bool, departmentID uuid.UUID, check func(seated int) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.departments[departmentID]; !ok {
		return repository.ErrNotFound
	}
	seated := 0
	for _, other := range s.db.users {
		if other.ID != u.ID && other.Role == model.RoleAdmin && other.DepartmentID != nil && *other.DepartmentID == departmentID {
			seated++
		}
	}
	if err := check(seated); err != nil {
		return err
	}
	if isNew {
		if s.taken(u) {
			return repository.ErrDuplicate
		}
		s.db.users[u.ID] = *u
		return nil
	}
	return s.update(u)
}

func (s memUsers) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.users, id)
	for cid, c := range s.db.complaints {
		if c.UserID == id {
			delete(s.db.complaints, cid)
		}
	}
	return nil
}

func (s memUsers) CountByRole(_ context.Context) (map[string]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	counts := map[string]int{}
	for _, u := range s.db.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

type memDepartments struct{ db *memDB }

func (s memDepartments) Create(_ context.Context, d *model.Department) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, other := range s.db.departments {
		if strings.EqualFold(other.Name, d.Name) {
			return repository.ErrDuplicate
		}
	}
	s.db.departments[d.ID] = *d
	return nil
}

func (s memDepartments) FindByID(_ context.Context, id uuid.UUID) (*model.Department, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s memDepartments) FindByName(_ context.Context, name string) (*model.Department, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, d := range s.db.departments {
		if strings.EqualFold(d.Name, name) {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memDepartments) List(ctx context.Context) ([]model.DepartmentSummary, error) {
	s.db.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.db.departments))
	for id := range s.db.departments {
		ids = append(ids, id)
	}
	s.db.mu.Unlock()

	out := []model.DepartmentSummary{}
	for _, id := range ids {
		d, _ := s.FindByID(ctx, id)
		complaints, admins, _ := s.ReferenceCounts(ctx, id)
		out = append(out, model.DepartmentSummary{Department: *d, ComplaintCount: complaints, AdminCount: admins})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memDepartments) Update(_ context.Context, d *model.Department) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.departments[d.ID]; !ok {
		return repository.ErrNotFound
	}
	s.db.departments[d.ID] = *d
	return nil
}

func (s memDepartments) ReferenceCounts(_ context.Context, id uuid.UUID) (complaints, admins int, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.complaints {
		if c.DepartmentID == id {
			complaints++
		}
	}
	for _, u := range s.db.users {
		if u.Role == model.RoleAdmin && u.DepartmentID != nil && *u.DepartmentID == id {
			admins++
		}
	}
	return complaints, admins, nil
}

func (s memDepartments) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.departments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.departments, id)
	return nil
}

func (s memDepartments) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.departments), nil
}

type memComplaints struct{ db *memDB }

// joined must be called with the lock held.
func (s memComplaints) joined(c model.Complaint) model.Complaint {
	if u, ok := s.db.users[c.UserID]; ok {
		c.User = &model.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
	}
	if d, ok := s.db.departments[c.DepartmentID]; ok {
		c.Department = &d
	}
	return c
}

func (s memComplaints) Create(_ context.Context, c *model.Complaint) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.departments[c.DepartmentID]; !ok {
		return repository.ErrReferenced
	}
	stored := *c
	stored.User, stored.Department = nil, nil
	s.db.complaints[c.ID] = stored
	return nil
}

func (s memComplaints) FindByID(_ context.Context, id uuid.UUID) (*model.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = s.joined(c)
	return &c, nil
}

func (s memComplaints) list(match func(model.Complaint) bool) []model.Complaint {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Complaint{}
	for _, c := range s.db.complaints {
		if match(c) {
			out = append(out, s.joined(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s memComplaints) FindByUser(_ context.Context, userID uuid.UUID) ([]model.Complaint, error) {
	return s.list(func(c model.Complaint) bool { return c.UserID == userID }), nil
}

func (s memComplaints) FindAll(_ context.Context, f model.ComplaintFilter) ([]model.Complaint, error) {
	return s.list(func(c model.Complaint) bool {
		if f.DepartmentID != nil && c.DepartmentID != *f.DepartmentID {
			return false
		}
		if f.Status != nil && c.Status != *f.Status {
			return false
		}
		if f.Seen != nil && c.Seen != *f.Seen {
			return false
		}
		return true
	}), nil
}

func (s memComplaints) UpdateContent(_ context.Context, c *model.Complaint) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.complaints[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.db.departments[c.DepartmentID]; !ok {
		return repository.ErrReferenced
	}
	c.UpdatedAt = time.Now()
	stored.Title, stored.Description, stored.DepartmentID = c.Title, c.Description, c.DepartmentID
	stored.Priority, stored.Attachments, stored.UpdatedAt = c.Priority, c.Attachments, c.UpdatedAt
	s.db.complaints[c.ID] = stored
	return nil
}

func (s memComplaints) UpdateStatus(_ context.Context, id uuid.UUID, status model.ComplaintStatus) (model.ComplaintStatus, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.complaints[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	old := c.Status
	c.Status = status
	c.UpdatedAt = time.Now()
	s.db.complaints[id] = c
	return old, nil
}

func (s memComplaints) MarkSeen(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.complaints[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Seen = true
	s.db.complaints[id] = c
	return nil
}

func (s memComplaints) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.complaints[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.complaints, id)
	return nil
}

func (s memComplaints) AttachmentsByUser(_ context.Context, userID uuid.UUID) (model.Attachments, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	all := model.Attachments{}
	for _, c := range s.db.complaints {
		if c.UserID == userID {
			all = append(all, c.Attachments...)
		}
	}
	return all, nil
}

type memFeedback struct{ db *memDB }

func (s memFeedback) Create(_ context.Context, f *model.Feedback) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, other := range s.db.feedback {
		if other.SubmittedBy == f.SubmittedBy && other.ComplaintID == f.ComplaintID {
			return repository.ErrDuplicate
		}
	}
	s.db.feedback = append(s.db.feedback, *f)
	return nil
}

func (s memFeedback) FindByUserAndComplaint(_ context.Context, userID, complaintID uuid.UUID) (*model.Feedback, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, f := range s.db.feedback {
		if f.SubmittedBy == userID && f.ComplaintID == complaintID {
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memFeedback) ListWithDetails(_ context.Context) ([]model.Feedback, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Feedback, len(s.db.feedback))
	copy(out, s.db.feedback)
	return out, nil
}

func (s memFeedback) Stats(_ context.Context) (int, float64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if len(s.db.feedback) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, f := range s.db.feedback {
		sum += f.Rating
	}
	return len(s.db.feedback), float64(sum) / float64(len(s.db.feedback)), nil
}

type memNotifications struct {
	db       *memDB
	failing  bool
	failUser uuid.UUID
}

func (s *memNotifications) Create(_ context.Context, n *model.Notification) error {
	if s.failing || (s.failUser != uuid.Nil && n.UserID == s.failUser) {
		return fmt.Errorf("insert notification: connection refused")
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.notifications[n.ID] = *n
	return nil
}

func (s *memNotifications) FindByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n, ok := s.db.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (s *memNotifications) GetByUserID(_ context.Context, userID uuid.UUID) ([]model.Notification, error) {
	out := s.db.notificationsFor(userID)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memNotifications) GetUnreadCount(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, notif := range s.db.notificationsFor(userID) {
		if !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *memNotifications) MarkAsRead(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n, ok := s.db.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.IsRead = true
	s.db.notifications[id] = n
	return nil
}

func (s *memNotifications) MarkAllAsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var updated int64
	for id, n := range s.db.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			s.db.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (s *memNotifications) MarkFeedbackGiven(_ context.Context, id, userID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n, ok := s.db.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.FeedbackGiven = true
	s.db.notifications[id] = n
	return nil
}

func (s *memNotifications) ExistsForComplaint(_ context.Context, userID, complaintID uuid.UUID, kind model.NotificationType) (bool, error) {
	for _, n := range s.db.notificationsFor(userID) {
		if n.ComplaintID != nil && *n.ComplaintID == complaintID && n.Type == kind {
			return true, nil
		}
	}
	return false, nil
}

type fakeFiles struct {
	mu      sync.Mutex
	removed []model.Attachment
}

func (f *fakeFiles) Check(files []*multipart.FileHeader) error {
	if len(files) > 5 {
		return apperr.Validation("at most 5 attachments are allowed")
	}
	return nil
}

func (f *fakeFiles) Save(files []*multipart.FileHeader) (model.Attachments, error) {
	if err := f.Check(files); err != nil {
		return nil, err
	}
	out := model.Attachments{}
	for _, fh := range files {
		out = append(out, model.Attachment{Filename: fh.Filename, Filepath: "uploads/" + uuid.NewString(), Mimetype: "image/png"})
	}
	return out, nil
}

func (f *fakeFiles) Remove(attachments model.Attachments) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, attachments...)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []model.ComplaintEvent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e model.ComplaintEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (p *recordingPusher) SendToUser(n *model.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *n)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func uploads(names ...string) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, 0, len(names))
	for _, n := range names {
		out = append(out, &multipart.FileHeader{Filename: n, Size: 10})
	}
	return out
}
