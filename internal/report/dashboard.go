package report

import (
	"sort"
	"time"

	"conservadora/internal/core"

	"github.com/shopspring/decimal"
)

const recentLimit = 5

// Stats are the home screen figures.
type Stats struct {
	Month             core.YearMonth `json:"mes"`
	Staff             int            `json:"total_funcionarias"`
	Condominiums      int            `json:"total_condominios"`
	AbsencesThisMonth int            `json:"faltas_este_mes"`
	PayrollThisMonth  Money          `json:"gasto_salarios"`
	TransportCost     Money          `json:"total_passagens"`
	SchedulesThisWeek int            `json:"escalas_semana"`
	RecentAbsences    []AbsenceRow   `json:"faltas_recentes"`
	UpcomingSchedules []ScheduleRow  `json:"proximas_escalas"`
}

// Dashboard computes the home screen figures as of now. Transport cost is
// one fare per schedule entry of the month.
func Dashboard(d Data, now time.Time) Stats {
	month := core.MonthOf(now)
	inMonth := Filter{Month: month}.Apply(d)

	fares := make(map[string]decimal.Decimal, len(d.Staff))
	for _, s := range d.Staff {
		fares[s.ID] = FromFloat(s.TransportFare)
	}
	transport := decimal.Zero
	for _, e := range inMonth.Schedules {
		if fare, ok := fares[core.Ref(e.StaffID)]; ok {
			transport = transport.Add(fare)
		}
	}

	weekStart, weekEnd := week(now)
	thisWeek := 0
	for _, e := range d.Schedules {
		if !e.Date.IsZero() && !e.Date.Before(weekStart) && e.Date.Before(weekEnd) {
			thisWeek++
		}
	}

	full := Build(d, Filter{})
	return Stats{
		Month:             month,
		Staff:             len(d.Staff),
		Condominiums:      len(d.Condominiums),
		AbsencesThisMonth: len(inMonth.Absences),
		PayrollThisMonth:  Money{Sum(inMonth.Payroll, func(p core.Payroll) *float64 { return p.FinalSalary })},
		TransportCost:     Money{transport},
		SchedulesThisWeek: thisWeek,
		RecentAbsences:    recentAbsences(full.Absences),
		UpcomingSchedules: upcomingSchedules(full.Schedules, now),
	}
}

// week returns the Monday starting the week of t and the following Monday.
func week(t time.Time) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

func recentAbsences(rows []AbsenceRow) []AbsenceRow {
	out := append([]AbsenceRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}

func upcomingSchedules(rows []ScheduleRow, now time.Time) []ScheduleRow {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]ScheduleRow, 0, recentLimit)
	for _, r := range rows {
		if !r.Date.IsZero() && !r.Date.Before(today) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}
