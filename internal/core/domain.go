package core

import (
	"errors"
	"strings"
)

type (
	// Staff is a cleaning staff member (table funcionarias).
	Staff struct {
		ID            string    `json:"id"`
		Name          string    `json:"nome"`
		TaxID         string    `json:"cpf"`
		Phone         *string   `json:"telefone"`
		Address       *string   `json:"endereco"`
		WorkDays      *float64  `json:"jornada_dias"`
		WeeklyHours   *float64  `json:"horas_semanais"`
		Weekdays      []string  `json:"dias_da_semana"`
		BaseSalary    *float64  `json:"salario_base"`
		TransportFare *float64  `json:"valor_passagem"` // per trip
		Documents     Documents `json:"documentos"`
	}

	// Condominium is a serviced building (table condominios).
	Condominium struct {
		ID              string   `json:"id"`
		Name            string   `json:"nome"`
		Address         string   `json:"endereco"`
		ServiceFee      *float64 `json:"valor_servico"`
		InvoiceEligible *bool    `json:"recebe_nota_fiscal"`
		ContractURL     *string  `json:"contrato_digital"`
	}

	// Schedule is one worked day of a staff member at a condominium
	// (table escalas). Each calendar occurrence is its own record.
	Schedule struct {
		ID            string  `json:"id"`
		Date          Date    `json:"data"`
		Hours         float64 `json:"horas_trabalho"`
		StaffID       *string `json:"id_funcionaria"`
		CondominiumID *string `json:"id_condominio"`
	}

	// Absence is a missed working day (table faltas).
	Absence struct {
		ID              string  `json:"id"`
		Date            Date    `json:"data"`
		Reason          *string `json:"motivo"`
		Justified       bool    `json:"justificativa"`
		DiscountApplied bool    `json:"desconto_aplicado"`
		AttachmentURL   *string `json:"anexo"`
		StaffID         *string `json:"id_funcionaria"`
	}

	// Payroll is a monthly salary result produced outside this system
	// (table salarios).
	Payroll struct {
		ID          string   `json:"id"`
		Month       Date     `json:"mes"`
		StaffID     *string  `json:"id_funcionaria"`
		FinalSalary *float64 `json:"salario_final"`
	}
)

var (
	ErrMissingName    = errors.New("name is required")
	ErrMissingTaxID   = errors.New("tax id is required")
	ErrMissingAddress = errors.New("address is required")
	ErrMissingDate    = errors.New("date is required")
	ErrNegativeHours  = errors.New("hours worked cannot be negative")
)

func (s Staff) Key() string       { return s.ID }
func (c Condominium) Key() string { return c.ID }
func (s Schedule) Key() string    { return s.ID }
func (a Absence) Key() string     { return a.ID }
func (p Payroll) Key() string     { return p.ID }

func (s Staff) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(s.TaxID) == "" {
		return ErrMissingTaxID
	}
	return nil
}

func (c Condominium) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(c.Address) == "" {
		return ErrMissingAddress
	}
	return nil
}

func (s Schedule) Validate() error {
	if s.Date.IsZero() {
		return ErrMissingDate
	}
	if s.Hours < 0 {
		return ErrNegativeHours
	}
	return nil
}

func (a Absence) Validate() error {
	if a.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Ref returns the referenced id or "" when unset.
func Ref(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

// StringPtr returns nil for blank strings, mirroring how optional form
// fields are stored.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
