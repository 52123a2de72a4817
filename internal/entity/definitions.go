package entity

import (
	"context"

	"conservadora/internal/core"
	"conservadora/internal/table"
)

const updatedDesc = "Dados atualizados com sucesso!"

var StaffDefinition = Definition[core.Staff]{
	Table:   table.Staff,
	OrderBy: "nome",
	Messages: Messages{
		LoadFailed:   "Erro ao carregar funcionárias",
		Created:      "Funcionária cadastrada",
		CreatedDesc:  "Funcionária adicionada com sucesso!",
		CreateFailed: "Erro ao cadastrar funcionária",
		Updated:      "Funcionária atualizada",
		UpdatedDesc:  updatedDesc,
		UpdateFailed: "Erro ao atualizar funcionária",
		Deleted:      "Funcionária removida",
		DeletedDesc:  "Funcionária removida com sucesso!",
		DeleteFailed: "Erro ao remover funcionária",
	},
}

var CondominiumDefinition = Definition[core.Condominium]{
	Table:   table.Condominiums,
	OrderBy: "nome",
	Messages: Messages{
		LoadFailed:   "Erro ao carregar condomínios",
		Created:      "Condomínio cadastrado",
		CreatedDesc:  "Condomínio adicionado com sucesso!",
		CreateFailed: "Erro ao cadastrar condomínio",
		Updated:      "Condomínio atualizado",
		UpdatedDesc:  updatedDesc,
		UpdateFailed: "Erro ao atualizar condomínio",
		Deleted:      "Condomínio removido",
		DeletedDesc:  "Condomínio removido com sucesso!",
		DeleteFailed: "Erro ao remover condomínio",
	},
}

var ScheduleDefinition = Definition[core.Schedule]{
	Table:   table.Schedules,
	OrderBy: "data",
	Messages: Messages{
		LoadFailed:   "Erro ao carregar escalas",
		Created:      "Escala cadastrada",
		CreatedDesc:  "Escala adicionada com sucesso!",
		CreateFailed: "Erro ao cadastrar escala",
		Updated:      "Escala atualizada",
		UpdatedDesc:  updatedDesc,
		UpdateFailed: "Erro ao atualizar escala",
		Deleted:      "Escala removida",
		DeletedDesc:  "Escala removida com sucesso!",
		DeleteFailed: "Erro ao remover escala",
	},
}

var AbsenceDefinition = Definition[core.Absence]{
	Table:   table.Absences,
	OrderBy: "data",
	Messages: Messages{
		LoadFailed:   "Erro ao carregar faltas",
		Created:      "Falta registrada",
		CreatedDesc:  "Falta registrada com sucesso!",
		CreateFailed: "Erro ao registrar falta",
		Updated:      "Falta atualizada",
		UpdatedDesc:  updatedDesc,
		UpdateFailed: "Erro ao atualizar falta",
		Deleted:      "Falta removida",
		DeletedDesc:  "Falta removida com sucesso!",
		DeleteFailed: "Erro ao remover falta",
	},
}

// PayrollDefinition is read-only: salaries are computed outside this system.
var PayrollDefinition = Definition[core.Payroll]{
	Table:    table.Payroll,
	OrderBy:  "mes",
	ReadOnly: true,
	Messages: Messages{
		LoadFailed: "Erro ao carregar salários",
	},
}

// Reader is the read side of a store.
type Reader[T Record] interface {
	List() []T
	Get(id string) (T, bool)
	Loading() bool
	LoadErr() error
	Load(ctx context.Context)
	Refresh(ctx context.Context) error
}

// Writer is a store that also accepts mutations.
type Writer[T Record] interface {
	Reader[T]
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, patch any) (T, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ Writer[core.Staff]   = (*Store[core.Staff])(nil)
	_ Reader[core.Payroll] = (*Store[core.Payroll])(nil)
)
