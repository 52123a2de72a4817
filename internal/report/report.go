// Package report turns cached entity lists into the figures of the reports
// screen. Everything here is pure and recomputed on demand.
package report

import (
	"conservadora/internal/core"

	"github.com/shopspring/decimal"
)

// NotAvailable stands in for references that resolve to nothing.
const NotAvailable = "N/A"

// Data is a snapshot of every entity list.
type Data struct {
	Staff        []core.Staff
	Condominiums []core.Condominium
	Schedules    []core.Schedule
	Absences     []core.Absence
	Payroll      []core.Payroll
}

// StaffSummary is one line of the per staff rollup.
type StaffSummary struct {
	StaffID    string          `json:"staff_id"`
	Name       string          `json:"nome"`
	BaseSalary Money           `json:"salario_base"`
	Absences   int             `json:"total_faltas"`
	Hours      decimal.Decimal `json:"total_horas"`
	Received   Money           `json:"total_recebido"`
}

type Totals struct {
	Staff     int   `json:"funcionarias"`
	Schedules int   `json:"escalas"`
	Absences  int   `json:"faltas"`
	Payroll   Money `json:"salarios"`
}

type AbsenceRow struct {
	ID              string    `json:"id"`
	Date            core.Date `json:"data"`
	Staff           string    `json:"funcionaria"`
	Reason          string    `json:"motivo"`
	Justified       bool      `json:"justificativa"`
	DiscountApplied bool      `json:"desconto_aplicado"`
}

type ScheduleRow struct {
	ID          string          `json:"id"`
	Date        core.Date       `json:"data"`
	Staff       string          `json:"funcionaria"`
	Condominium string          `json:"condominio"`
	Hours       decimal.Decimal `json:"horas_trabalho"`
}

type PayrollRow struct {
	ID          string    `json:"id"`
	Month       core.Date `json:"mes"`
	Staff       string    `json:"funcionaria"`
	FinalSalary Money     `json:"salario_final"`
}

type Report struct {
	Filter    Filter         `json:"filter"`
	Totals    Totals         `json:"totals"`
	Rollup    []StaffSummary `json:"por_funcionaria"`
	Absences  []AbsenceRow   `json:"faltas"`
	Schedules []ScheduleRow  `json:"escalas"`
	Payroll   []PayrollRow   `json:"salarios"`
}

// Rollup summarises every staff member over the unfiltered data.
func Rollup(d Data) []StaffSummary {
	out := make([]StaffSummary, 0, len(d.Staff))
	for _, s := range d.Staff {
		sum := StaffSummary{
			StaffID:    s.ID,
			Name:       s.Name,
			BaseSalary: Money{FromFloat(s.BaseSalary)},
			Hours:      decimal.Zero,
			Received:   Money{decimal.Zero},
		}
		for _, a := range d.Absences {
			if core.Ref(a.StaffID) == s.ID {
				sum.Absences++
			}
		}
		for _, e := range d.Schedules {
			if core.Ref(e.StaffID) == s.ID {
				sum.Hours = sum.Hours.Add(decimal.NewFromFloat(e.Hours))
			}
		}
		for _, p := range d.Payroll {
			if core.Ref(p.StaffID) == s.ID {
				sum.Received.Decimal = sum.Received.Add(FromFloat(p.FinalSalary))
			}
		}
		out = append(out, sum)
	}
	return out
}

// ComputeTotals counts staff over all of all and the period tables over
// filtered.
func ComputeTotals(all, filtered Data) Totals {
	return Totals{
		Staff:     len(all.Staff),
		Schedules: len(filtered.Schedules),
		Absences:  len(filtered.Absences),
		Payroll:   Money{Sum(filtered.Payroll, func(p core.Payroll) *float64 { return p.FinalSalary })},
	}
}

// Build assembles the report for f. The rollup ignores f.
func Build(d Data, f Filter) Report {
	filtered := f.Apply(d)
	staff := staffNames(d.Staff)
	condos := condominiumNames(d.Condominiums)

	r := Report{
		Filter:    f,
		Totals:    ComputeTotals(d, filtered),
		Rollup:    Rollup(d),
		Absences:  make([]AbsenceRow, 0, len(filtered.Absences)),
		Schedules: make([]ScheduleRow, 0, len(filtered.Schedules)),
		Payroll:   make([]PayrollRow, 0, len(filtered.Payroll)),
	}
	for _, a := range filtered.Absences {
		reason := core.Ref(a.Reason)
		if reason == "" {
			reason = NotAvailable
		}
		r.Absences = append(r.Absences, AbsenceRow{
			ID:              a.ID,
			Date:            a.Date,
			Staff:           resolve(staff, a.StaffID),
			Reason:          reason,
			Justified:       a.Justified,
			DiscountApplied: a.DiscountApplied,
		})
	}
	for _, e := range filtered.Schedules {
		r.Schedules = append(r.Schedules, ScheduleRow{
			ID:          e.ID,
			Date:        e.Date,
			Staff:       resolve(staff, e.StaffID),
			Condominium: resolve(condos, e.CondominiumID),
			Hours:       decimal.NewFromFloat(e.Hours),
		})
	}
	for _, p := range filtered.Payroll {
		r.Payroll = append(r.Payroll, PayrollRow{
			ID:          p.ID,
			Month:       p.Month,
			Staff:       resolve(staff, p.StaffID),
			FinalSalary: Money{FromFloat(p.FinalSalary)},
		})
	}
	return r
}

func staffNames(staff []core.Staff) map[string]string {
	m := make(map[string]string, len(staff))
	for _, s := range staff {
		m[s.ID] = s.Name
	}
	return m
}

func condominiumNames(condos []core.Condominium) map[string]string {
	m := make(map[string]string, len(condos))
	for _, c := range condos {
		m[c.ID] = c.Name
	}
	return m
}

func resolve(names map[string]string, id *string) string {
	if name, ok := names[core.Ref(id)]; ok && name != "" {
		return name
	}
	return NotAvailable
}
