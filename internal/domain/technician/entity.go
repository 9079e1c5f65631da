package technician

import "time"

// Technician is a roster row owned by the HR system; this service only reads it.
type Technician struct {
	ID           string
	CompanyID    string
	DepartmentID *string
	Location     *string
	EmployeeCode string
	FullName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InDepartment reports whether the technician belongs to departmentID.
// An empty departmentID matches the whole organization.
func (t Technician) InDepartment(departmentID string) bool {
	if departmentID == "" {
		return true
	}
	return t.DepartmentID != nil && *t.DepartmentID == departmentID
}
