package table

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindJSON
	KindDate
)

// Table names of the hosted backend.
const (
	Staff        = "funcionarias"
	Condominiums = "condominios"
	Schedules    = "escalas"
	Absences     = "faltas"
	Payroll      = "salarios"
)

type Column struct {
	Name string
	Kind Kind
}

// Schema describes the columns of one table, id excluded, and the column
// the table is listed by.
type Schema struct {
	Name    string
	OrderBy string
	Columns []Column
}

var schemas = map[string]Schema{
	Staff: {
		Name:    Staff,
		OrderBy: "nome",
		Columns: []Column{
			{"nome", KindText},
			{"cpf", KindText},
			{"telefone", KindText},
			{"endereco", KindText},
			{"jornada_dias", KindNumber},
			{"horas_semanais", KindNumber},
			{"dias_da_semana", KindJSON},
			{"salario_base", KindNumber},
			{"valor_passagem", KindNumber},
			{"documentos", KindJSON},
		},
	},
	Condominiums: {
		Name:    Condominiums,
		OrderBy: "nome",
		Columns: []Column{
			{"nome", KindText},
			{"endereco", KindText},
			{"valor_servico", KindNumber},
			{"recebe_nota_fiscal", KindBool},
			{"contrato_digital", KindText},
		},
	},
	Schedules: {
		Name:    Schedules,
		OrderBy: "data",
		Columns: []Column{
			{"data", KindDate},
			{"horas_trabalho", KindNumber},
			{"id_funcionaria", KindText},
			{"id_condominio", KindText},
		},
	},
	Absences: {
		Name:    Absences,
		OrderBy: "data",
		Columns: []Column{
			{"data", KindDate},
			{"motivo", KindText},
			{"justificativa", KindBool},
			{"desconto_aplicado", KindBool},
			{"anexo", KindText},
			{"id_funcionaria", KindText},
		},
	},
	Payroll: {
		Name:    Payroll,
		OrderBy: "mes",
		Columns: []Column{
			{"mes", KindDate},
			{"id_funcionaria", KindText},
			{"salario_final", KindNumber},
		},
	},
}

// Lookup returns the schema of a known table.
func Lookup(name string) (Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}

// Column returns the named column. The id column is reported as text.
func (s Schema) Column(name string) (Column, bool) {
	if name == IDColumn {
		return Column{Name: IDColumn, Kind: KindText}, true
	}
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames lists the non-id columns in declaration order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// AllColumns lists id followed by every other column.
func (s Schema) AllColumns() []string {
	return append([]string{IDColumn}, s.ColumnNames()...)
}
