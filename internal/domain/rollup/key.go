package rollup

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DirtyKey is emitted when a technician-day needs its daily rollup rebuilt.
type DirtyKey struct {
	CompanyID    string
	TechnicianID string
	Date         time.Time
}

func (k DirtyKey) String() string {
	return fmt.Sprintf("daily:%s:%s:%s", k.CompanyID, k.TechnicianID, k.Date.Format(dateLayout))
}

type WeekKey struct {
	CompanyID    string
	TechnicianID string
	WeekStart    time.Time
}

func (k WeekKey) String() string {
	return fmt.Sprintf("weekly:%s:%s:%s", k.CompanyID, k.TechnicianID, k.WeekStart.Format(dateLayout))
}

type ShopKey struct {
	CompanyID    string
	Date         time.Time
	DepartmentID string
}

func (k ShopKey) String() string {
	dep := k.DepartmentID
	if dep == "" {
		dep = "*"
	}
	return fmt.Sprintf("shop:%s:%s:%s", k.CompanyID, k.Date.Format(dateLayout), dep)
}

// TruncateDay drops the clock part, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday on or before date.
func WeekStart(date time.Time) time.Time {
	day := TruncateDay(date)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
