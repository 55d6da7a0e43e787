package model

type AdminDashboard struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	ByPriority        map[string]int `json:"by_priority"`
	ThisMonth         int            `json:"this_month"`
	Unseen            int            `json:"unseen"`
	AvgResolutionDays float64        `json:"avg_resolution_days"`
	RecentComplaints  []Complaint    `json:"recent_complaints"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

type SuperAdminStats struct {
	TotalUsers         int               `json:"total_users"`
	UsersByRole        map[string]int    `json:"users_by_role"`
	TotalDepartments   int               `json:"total_departments"`
	TotalComplaints    int               `json:"total_complaints"`
	ComplaintsByStatus map[string]int    `json:"complaints_by_status"`
	ComplaintsByDept   []DepartmentCount `json:"complaints_by_department"`
	ThisMonth          int               `json:"this_month"`
	AvgResolutionDays  float64           `json:"avg_resolution_days"`
	FeedbackCount      int               `json:"feedback_count"`
	AverageRating      float64           `json:"average_rating"`
}
