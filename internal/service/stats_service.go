package service

import (
	"context"
	"sort"
	"time"

	"complaint-service/internal/apperr"
	"complaint-service/internal/model"
)

const recentComplaints = 5

// StatsService computes the dashboards fresh on every call; nothing is cached.
type StatsService struct {
	complaints  *ComplaintService
	store       ComplaintStore
	users       UserStore
	departments DepartmentStore
	feedback    FeedbackStore
	now         func() time.Time
}

func NewStatsService(complaints *ComplaintService, store ComplaintStore, users UserStore, departments DepartmentStore, feedback FeedbackStore) *StatsService {
	return &StatsService{
		complaints:  complaints,
		store:       store,
		users:       users,
		departments: departments,
		feedback:    feedback,
		now:         time.Now,
	}
}

// AdminDashboard covers the same complaints the admin's listing shows.
func (s *StatsService) AdminDashboard(ctx context.Context, actor *model.User) (*model.AdminDashboard, error) {
	complaints, err := s.complaints.ReadAllForAdmin(ctx, actor, model.ComplaintFilter{})
	if err != nil {
		return nil, err
	}
	return ComputeDashboard(complaints, s.now()), nil
}

func (s *StatsService) SuperAdminStats(ctx context.Context) (*model.SuperAdminStats, error) {
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, apperr.Unexpected("failed to count users", err)
	}
	departments, err := s.departments.Count(ctx)
	if err != nil {
		return nil, apperr.Unexpected("failed to count departments", err)
	}
	complaints, err := s.store.FindAll(ctx, model.ComplaintFilter{})
	if err != nil {
		return nil, apperr.Unexpected("failed to load complaints", err)
	}
	feedbackCount, avgRating, err := s.feedback.Stats(ctx)
	if err != nil {
		return nil, apperr.Unexpected("failed to load feedback stats", err)
	}

	totalUsers := 0
	for _, n := range byRole {
		totalUsers += n
	}

	now := s.now()
	return &model.SuperAdminStats{
		TotalUsers:         totalUsers,
		UsersByRole:        byRole,
		TotalDepartments:   departments,
		TotalComplaints:    len(complaints),
		ComplaintsByStatus: countByStatus(complaints),
		ComplaintsByDept:   countByDepartment(complaints),
		ThisMonth:          countThisMonth(complaints, now),
		AvgResolutionDays:  AverageResolutionDays(complaints),
		FeedbackCount:      feedbackCount,
		AverageRating:      round2(avgRating),
	}, nil
}

// ComputeDashboard expects complaints newest first.
func ComputeDashboard(complaints []model.Complaint, now time.Time) *model.AdminDashboard {
	byPriority := make(map[string]int, len(model.Priorities))
	for _, p := range model.Priorities {
		byPriority[string(p)] = 0
	}
	unseen := 0
	for _, c := range complaints {
		byPriority[string(c.Priority)]++
		if !c.Seen {
			unseen++
		}
	}

	recent := complaints
	if len(recent) > recentComplaints {
		recent = recent[:recentComplaints]
	}
	if recent == nil {
		recent = []model.Complaint{}
	}

	return &model.AdminDashboard{
		Total:             len(complaints),
		ByStatus:          countByStatus(complaints),
		ByPriority:        byPriority,
		ThisMonth:         countThisMonth(complaints, now),
		Unseen:            unseen,
		AvgResolutionDays: AverageResolutionDays(complaints),
		RecentComplaints:  recent,
	}
}

// AverageResolutionDays is the mean time from creation to last update over resolved and
// closed complaints, in days rounded to two decimals. Zero when none are resolved.
func AverageResolutionDays(complaints []model.Complaint) float64 {
	var total time.Duration
	n := 0
	for _, c := range complaints {
		if !c.Status.FeedbackEligible() {
			continue
		}
		total += c.UpdatedAt.Sub(c.CreatedAt)
		n++
	}
	if n == 0 {
		return 0
	}
	days := total.Hours() / 24 / float64(n)
	return round2(days)
}

func countByStatus(complaints []model.Complaint) map[string]int {
	counts := make(map[string]int, len(model.ComplaintStatuses))
	for _, st := range model.ComplaintStatuses {
		counts[string(st)] = 0
	}
	for _, c := range complaints {
		counts[string(c.Status)]++
	}
	return counts
}

// countThisMonth uses now's calendar month and year.
func countThisMonth(complaints []model.Complaint, now time.Time) int {
	year, month, _ := now.Date()
	n := 0
	for _, c := range complaints {
		y, m, _ := c.CreatedAt.In(now.Location()).Date()
		if y == year && m == month {
			n++
		}
	}
	return n
}

func countByDepartment(complaints []model.Complaint) []model.DepartmentCount {
	counts := map[string]int{}
	for _, c := range complaints {
		name := c.DepartmentID.String()
		if c.Department != nil {
			name = c.Department.Name
		}
		counts[name]++
	}

	out := make([]model.DepartmentCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, model.DepartmentCount{Department: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Department < out[j].Department
	})
	return out
}
