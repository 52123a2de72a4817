package report

import (
	"fmt"
	"strings"

	"conservadora/internal/core"
)

// Filter selects the rows of the period tables. The zero Filter keeps
// everything.
type Filter struct {
	Month   core.YearMonth `json:"month"`
	StaffID string         `json:"staff_id,omitempty"`
}

// ParseFilter reads the month ("YYYY-MM") and staff selectors. Blank
// values mean "all".
func ParseFilter(month, staffID string) (Filter, error) {
	ym, err := core.ParseYearMonth(month)
	if err != nil {
		return Filter{}, fmt.Errorf("month %q: %w", month, err)
	}
	return Filter{Month: ym, StaffID: strings.TrimSpace(staffID)}, nil
}

func (f Filter) IsZero() bool {
	return f.Month.IsZero() && f.StaffID == ""
}

// Key identifies the filter in caches.
func (f Filter) Key() string {
	return f.Month.String() + "|" + f.StaffID
}

// FilterByMonth keeps the items whose date falls in ym, preserving order.
// A zero ym keeps everything.
func FilterByMonth[T any](items []T, ym core.YearMonth, dateOf func(T) core.Date) []T {
	if ym.IsZero() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if dateOf(it).InMonth(ym) {
			out = append(out, it)
		}
	}
	return out
}

// FilterByStaff keeps the items referencing staffID. An empty id keeps
// everything.
func FilterByStaff[T any](items []T, staffID string, staffOf func(T) *string) []T {
	if staffID == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if core.Ref(staffOf(it)) == staffID {
			out = append(out, it)
		}
	}
	return out
}

func scheduleDate(s core.Schedule) core.Date { return s.Date }
func absenceDate(a core.Absence) core.Date   { return a.Date }
func payrollMonth(p core.Payroll) core.Date  { return p.Month }

func scheduleStaff(s core.Schedule) *string { return s.StaffID }
func absenceStaff(a core.Absence) *string   { return a.StaffID }
func payrollStaff(p core.Payroll) *string   { return p.StaffID }

// Apply narrows the period tables of d. Staff and condominiums are kept
// whole.
func (f Filter) Apply(d Data) Data {
	out := d
	out.Schedules = FilterByStaff(FilterByMonth(d.Schedules, f.Month, scheduleDate), f.StaffID, scheduleStaff)
	out.Absences = FilterByStaff(FilterByMonth(d.Absences, f.Month, absenceDate), f.StaffID, absenceStaff)
	out.Payroll = FilterByStaff(FilterByMonth(d.Payroll, f.Month, payrollMonth), f.StaffID, payrollStaff)
	return out
}
