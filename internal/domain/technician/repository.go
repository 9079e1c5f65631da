package technician

import "context"

type TechnicianRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Technician, error)
	// ListActive returns active technicians; empty departmentID means the whole company
	ListActive(ctx context.Context, companyID string, departmentID string) ([]Technician, error)
	ListDepartments(ctx context.Context, companyID string) ([]string, error)
	// ListCompanyIDs returns every company with at least one active technician
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
