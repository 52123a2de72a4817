// Package export renders a report as tables for spreadsheets.
package export

import (
	"strconv"

	"conservadora/internal/core"
	"conservadora/internal/report"
)

const displayDate = "02/01/2006"

// Table is one sheet of an export. Cells are strings, ints or float64;
// the columns listed in Money hold currency amounts.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
	Money  []int
}

// Tables lays out every section of r in display order.
func Tables(r report.Report) []Table {
	summary := Table{
		Name:   "Resumo",
		Header: []string{"Indicador", "Valor"},
		Money:  []int{1},
		Rows: [][]any{
			{"Período", period(r.Filter)},
			{"Total de Funcionárias", r.Totals.Staff},
			{"Escalas no Período", r.Totals.Schedules},
			{"Faltas no Período", r.Totals.Absences},
			{"Total de Salários", money(r.Totals.Payroll)},
		},
	}

	staff := Table{
		Name:   "Funcionarias",
		Header: []string{"Funcionária", "Salário Base", "Total Faltas", "Total Horas", "Total Recebido"},
		Money:  []int{1, 4},
	}
	for _, s := range r.Rollup {
		staff.Rows = append(staff.Rows, []any{
			s.Name, money(s.BaseSalary), s.Absences, s.Hours.InexactFloat64(), money(s.Received),
		})
	}

	absences := Table{
		Name:   "Faltas",
		Header: []string{"Data", "Funcionária", "Motivo", "Justificada", "Desconto Aplicado"},
	}
	for _, a := range r.Absences {
		absences.Rows = append(absences.Rows, []any{
			formatDate(a.Date), a.Staff, a.Reason, yesNo(a.Justified), yesNo(a.DiscountApplied),
		})
	}

	schedules := Table{
		Name:   "Escalas",
		Header: []string{"Data", "Funcionária", "Condomínio", "Horas"},
	}
	for _, e := range r.Schedules {
		schedules.Rows = append(schedules.Rows, []any{
			formatDate(e.Date), e.Staff, e.Condominium, e.Hours.InexactFloat64(),
		})
	}

	payroll := Table{
		Name:   "Salarios",
		Header: []string{"Mês", "Funcionária", "Salário Final"},
		Money:  []int{2},
	}
	for _, p := range r.Payroll {
		payroll.Rows = append(payroll.Rows, []any{
			formatMonth(p.Month), p.Staff, money(p.FinalSalary),
		})
	}

	return []Table{summary, staff, absences, schedules, payroll}
}

// Strings converts every cell to its display text. Money cells use two
// decimals.
func (t Table) Strings() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Header...))
	for _, row := range t.Rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = cellText(v, t.isMoney(i))
		}
		out = append(out, line)
	}
	return out
}

func (t Table) isMoney(col int) bool {
	for _, c := range t.Money {
		if c == col {
			return true
		}
	}
	return false
}

func cellText(v any, isMoney bool) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		if isMoney {
			return strconv.FormatFloat(x, 'f', 2, 64)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func money(m report.Money) float64 {
	return m.Round(2).InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(displayDate)
}

func formatMonth(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("01/2006")
}

func period(f report.Filter) string {
	if f.Month.IsZero() {
		return "Todos os meses"
	}
	return f.Month.String()
}
