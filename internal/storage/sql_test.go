package storage

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"conservadora/internal/table"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *SQLClient {
	t.Helper()
	c, err := Open(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)

	staff, err := c.Insert(ctx, table.Staff, table.Fields{
		"nome":           "Ana",
		"cpf":            "123",
		"dias_da_semana": []any{"seg", "qua"},
		"salario_base":   1500.0,
		"documentos":     []any{map[string]any{"nome": "RG", "tipo": "PDF", "url": "http://x/rg.pdf"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, staff.ID())
	assert.Equal(t, "Ana", staff["nome"])
	assert.Equal(t, 1500.0, staff["salario_base"])
	assert.Nil(t, staff["telefone"])
	assert.Equal(t, []any{"seg", "qua"}, staff["dias_da_semana"])
	assert.Empty(t, staff.Missing(append([]string{"id"}, mustSchema(t, table.Staff).ColumnNames()...)))

	abs, err := c.Insert(ctx, table.Absences, table.Fields{
		"data":           "2024-06-10",
		"justificativa":  true,
		"id_funcionaria": staff.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, true, abs["justificativa"])
	assert.Equal(t, false, abs["desconto_aplicado"])
	assert.Equal(t, "2024-06-10", abs["data"])

	updated, err := c.Update(ctx, table.Absences, abs.ID(), table.Fields{"motivo": "doença", "desconto_aplicado": true})
	require.NoError(t, err)
	assert.Equal(t, "doença", updated["motivo"])
	assert.Equal(t, true, updated["desconto_aplicado"])
	assert.Equal(t, abs.ID(), updated.ID())

	// Deleting the staff member clears the reference instead of failing.
	require.NoError(t, c.Delete(ctx, table.Staff, staff.ID()))
	rows, err := c.Select(ctx, table.Absences, "data")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["id_funcionaria"])
}

func TestSQLiteSelectOrder(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)

	for _, n := range []string{"Carla", "Ana", "Beatriz"} {
		_, err := c.Insert(ctx, table.Staff, table.Fields{"nome": n, "cpf": n})
		require.NoError(t, err)
	}

	rows, err := c.Select(ctx, table.Staff, "nome")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ana", rows[0]["nome"])
	assert.Equal(t, "Beatriz", rows[1]["nome"])
	assert.Equal(t, "Carla", rows[2]["nome"])
}

func TestSQLiteUpdateMissing(t *testing.T) {
	c := openSQLite(t)
	_, err := c.Update(context.Background(), table.Condominiums, "nope", table.Fields{"nome": "X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrNotFound)
	assert.Equal(t, "record not found", err.Error())
}

func TestSQLiteDeleteMissing(t *testing.T) {
	c := openSQLite(t)
	assert.NoError(t, c.Delete(context.Background(), table.Schedules, "nope"))
}

func TestSQLiteRejectsUnknown(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)

	_, err := c.Insert(ctx, table.Staff, table.Fields{"nome": "A", "cpf": "1", "bogus": 1})
	var te *table.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, table.OpInsert, te.Op)
	assert.Contains(t, te.Message, "bogus")

	_, err = c.Select(ctx, "nope", "id")
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "nope")

	_, err = c.Select(ctx, table.Staff, "nome; DROP TABLE funcionarias")
	require.Error(t, err)
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	c1, err := Open(context.Background(), DialectSQLite, path)
	require.NoError(t, err)
	c1.Close()

	c2, err := Open(context.Background(), DialectSQLite, path)
	require.NoError(t, err)
	c2.Close()
}

func mustSchema(t *testing.T, name string) table.Schema {
	t.Helper()
	s, ok := table.Lookup(name)
	require.True(t, ok)
	return s
}

func newMockClient(t *testing.T) (*SQLClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewSQLClient(db, DialectPostgres)
	c.newID = func() string { return "fixed-id" }
	t.Cleanup(func() { db.Close() })
	return c, mock
}

func TestPostgresInsertUsesNumberedPlaceholders(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO salarios (id, id_funcionaria, mes, salario_final) VALUES ($1, $2, $3, $4) RETURNING id, mes, id_funcionaria, salario_final")).
		WithArgs("fixed-id", "s1", "2024-06-01", 2400.5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mes", "id_funcionaria", "salario_final"}).
			AddRow("fixed-id", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "s1", []byte("2400.50")))

	row, err := c.Insert(context.Background(), table.Payroll, table.Fields{
		"mes":            "2024-06-01",
		"id_funcionaria": "s1",
		"salario_final":  2400.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", row["mes"])
	assert.Equal(t, 2400.5, row["salario_final"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateNotFound(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE condominios SET nome = $1 WHERE id = $2 RETURNING id, nome, endereco, valor_servico, recebe_nota_fiscal, contrato_digital")).
		WithArgs("Novo", "c9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nome", "endereco", "valor_servico", "recebe_nota_fiscal", "contrato_digital"}))

	_, err := c.Update(context.Background(), table.Condominiums, "c9", table.Fields{"nome": "Novo"})
	assert.ErrorIs(t, err, table.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSelectNormalizesDriverValues(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, nome, cpf, telefone, endereco, jornada_dias, horas_semanais, dias_da_semana, salario_base, valor_passagem, documentos FROM funcionarias ORDER BY nome ASC NULLS LAST, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nome", "cpf", "telefone", "endereco", "jornada_dias", "horas_semanais", "dias_da_semana", "salario_base", "valor_passagem", "documentos"}).
			AddRow("s1", "Ana", "1", nil, nil, int64(5), []byte("44"), []byte(`["seg"]`), []byte("1500.00"), nil, []byte(`[]`)))

	rows, err := c.Select(context.Background(), table.Staff, "nome")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5.0, rows[0]["jornada_dias"])
	assert.Equal(t, 44.0, rows[0]["horas_semanais"])
	assert.Equal(t, []any{"seg"}, rows[0]["dias_da_semana"])
	assert.Equal(t, 1500.0, rows[0]["salario_base"])
	assert.Equal(t, []any{}, rows[0]["documentos"])
	assert.Nil(t, rows[0]["telefone"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteFailure(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM escalas WHERE id = $1")).
		WithArgs("e1").
		WillReturnError(errors.New("connection reset"))

	err := c.Delete(context.Background(), table.Schedules, "e1")
	var te *table.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "connection reset", te.Message)
	assert.Equal(t, table.OpDelete, te.Op)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		kind table.Kind
		in   any
		want any
	}{
		{"nil", table.KindNumber, nil, nil},
		{"int to float", table.KindNumber, int64(3), 3.0},
		{"numeric bytes", table.KindNumber, []byte("12.34"), 12.34},
		{"sqlite bool", table.KindBool, int64(1), true},
		{"sqlite false", table.KindBool, int64(0), false},
		{"date time", table.KindDate, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), "2024-06-10"},
		{"date timestamp text", table.KindDate, "2024-06-10T00:00:00Z", "2024-06-10"},
		{"json text", table.KindJSON, `{"a":1}`, map[string]any{"a": 1.0}},
		{"bad json kept", table.KindJSON, `nope`, "nope"},
		{"text bytes", table.KindText, []byte("abc"), "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.kind, tt.in))
		})
	}
}
