package policy

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyRows() *sqlmock.Rows {
	return sqlmock.NewRows(Columns).
		AddRow("great_southern_bank", "Great Southern Bank", "80", "95", "650",
			"permanent|contract|casual|self_employed", "standard", "6", "6.09", "0", "0.25", nil, "80:0.10|90:0.30").
		AddRow("latrobe_financial", "La Trobe Financial", "80", "80", "500",
			"permanent|casual|contract|self_employed", "standard|non_standard", "7", "6.50", "0.25", "0.50", "1.00", nil)
}

func TestPostgresSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src := NewPostgresSource(db, "")
	assert.Equal(t, "postgres:lender_policies", src.Name())

	mock.ExpectQuery(regexp.QuoteMeta(src.Query())).WillReturnRows(policyRows())

	table, err := LoadPolicies(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	gsb, ok := table.Lookup("great_southern_bank")
	require.True(t, ok)
	assert.Equal(t, 6.09, gsb.BaseRate)
	assert.Len(t, gsb.GradeLoadings, 2)

	latrobe, ok := table.Lookup("latrobe_financial")
	require.True(t, ok)
	assert.Len(t, latrobe.GradeLoadings, 3)
	assert.Empty(t, latrobe.LVRLoadings)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryShape(t *testing.T) {
	src := NewPostgresSource(nil, "lending.policies")
	query := src.Query()

	assert.Contains(t, query, "SELECT lender_id::text, lender_name::text")
	assert.Contains(t, query, "FROM lending.policies ORDER BY position, lender_id")
}

func TestPostgresSource_Errors(t *testing.T) {
	t.Run("query failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT lender_id::text").WillReturnError(errors.New("relation does not exist"))

		_, err = NewPostgresSource(db, "").Load(context.Background())

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "postgres:lender_policies", loadErr.Source)
		assert.Contains(t, err.Error(), "relation does not exist")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(Columns).
			AddRow("odd_bank", "Odd Bank", "eighty", "95", "600", "permanent", "standard", "6", "6", "0", "", "", "")
		mock.ExpectQuery("SELECT lender_id::text").WillReturnRows(rows)

		_, err = NewPostgresSource(db, "").Load(context.Background())

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, 1, loadErr.Line)
		assert.Equal(t, "odd_bank", loadErr.Lender)
		assert.Contains(t, err.Error(), "max_lvr_without_lmi")
	})

	t.Run("invalid table name", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		_, err = NewPostgresSource(db, "policies; DROP TABLE x").Load(context.Background())
		assert.ErrorContains(t, err, "invalid table name")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
