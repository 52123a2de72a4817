package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"conservadora/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertFillsColumnsAndID(t *testing.T) {
	s := New()
	row, err := s.Insert(context.Background(), table.Condominiums, table.Fields{"nome": "Solar", "endereco": "Rua A"})
	require.NoError(t, err)
	assert.NotEmpty(t, row.ID())
	assert.Contains(t, row, "valor_servico")
	assert.Nil(t, row["valor_servico"])
	assert.Equal(t, 1, s.Calls(table.OpInsert))
}

func TestSelectOrdersWithNullsLast(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed(table.Schedules,
		table.Fields{"id": "c", "data": "2024-06-12"},
		table.Fields{"id": "n", "data": nil},
		table.Fields{"id": "a", "data": "2024-06-01"},
	))

	rows, err := s.Select(context.Background(), table.Schedules, "data")
	require.NoError(t, err)
	ids := []string{rows[0].ID(), rows[1].ID(), rows[2].ID()}
	assert.Equal(t, []string{"a", "c", "n"}, ids)
}

func TestSelectReturnsCopies(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed(table.Staff, table.Fields{"id": "s1", "nome": "Ana", "cpf": "1", "dias_da_semana": []string{"seg"}}))

	rows, err := s.Select(context.Background(), table.Staff, "nome")
	require.NoError(t, err)
	rows[0]["nome"] = "changed"
	rows[0]["dias_da_semana"].([]any)[0] = "dom"

	again, _ := s.Select(context.Background(), table.Staff, "nome")
	assert.Equal(t, "Ana", again[0]["nome"])
	assert.Equal(t, []any{"seg"}, again[0]["dias_da_semana"])
}

func TestUpdate(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed(table.Absences, table.Fields{"id": "f1", "data": "2024-06-10", "justificativa": false}))

	row, err := s.Update(context.Background(), table.Absences, "f1", table.Fields{"justificativa": true})
	require.NoError(t, err)
	assert.Equal(t, true, row["justificativa"])
	assert.Equal(t, "2024-06-10", row["data"])

	_, err = s.Update(context.Background(), table.Absences, "missing", table.Fields{"justificativa": true})
	assert.ErrorIs(t, err, table.ErrNotFound)
}

func TestDeleteClearsReferences(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed(table.Staff, table.Fields{"id": "s1", "nome": "Ana", "cpf": "1"}))
	require.NoError(t, s.Seed(table.Schedules, table.Fields{"id": "e1", "data": "2024-06-10", "id_funcionaria": "s1"}))

	require.NoError(t, s.Delete(context.Background(), table.Staff, "s1"))
	require.NoError(t, s.Delete(context.Background(), table.Staff, "s1"))

	assert.Empty(t, s.Rows(table.Staff))
	assert.Nil(t, s.Rows(table.Schedules)[0]["id_funcionaria"])
}

func TestFailNextIsConsumed(t *testing.T) {
	s := New()
	s.FailNext(table.OpInsert, "permission denied")

	_, err := s.Insert(context.Background(), table.Staff, table.Fields{"nome": "A", "cpf": "1"})
	require.Error(t, err)
	assert.Equal(t, "permission denied", err.Error())

	_, err = s.Insert(context.Background(), table.Staff, table.Fields{"nome": "A", "cpf": "1"})
	assert.NoError(t, err)
	assert.Len(t, s.Rows(table.Staff), 1)
}

func TestUnknownColumnRejected(t *testing.T) {
	s := New()
	_, err := s.Insert(context.Background(), table.Staff, table.Fields{"nome": "A", "idade": 3})
	var te *table.Error
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "idade")
}

func TestMangle(t *testing.T) {
	s := New()
	s.SetMangle(func(op, name string, row table.Fields) table.Fields {
		delete(row, "cpf")
		return row
	})
	row, err := s.Insert(context.Background(), table.Staff, table.Fields{"nome": "A", "cpf": "1"})
	require.NoError(t, err)
	assert.NotContains(t, row, "cpf")
	assert.Equal(t, "1", s.Rows(table.Staff)[0]["cpf"])
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	// No files -> empty tables
	s, err := NewFromDir(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Rows(table.Staff))

	seed := `[{"id":"s1","nome":"Ana","cpf":"1"},{"nome":"Bia","cpf":"2"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "funcionarias.json"), []byte(seed), 0o644))

	s, err = NewFromDir(dir)
	require.NoError(t, err)
	rows := s.Rows(table.Staff)
	require.Len(t, rows, 2)
	assert.Equal(t, "s1", rows[0].ID())
	assert.NotEmpty(t, rows[1].ID())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "faltas.json"), []byte("{"), 0o644))
	_, err = NewFromDir(dir)
	assert.Error(t, err)
}
