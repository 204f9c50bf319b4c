package policy

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"lending-workers/internal/models"
)

const DefaultPolicyTable = "lender_policies"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// PostgresSource reads policies from a table whose columns follow Columns.
// Rows come back ordered by the position column so the table keeps a stable order.
type PostgresSource struct {
	DB    Querier
	Table string
}

func NewPostgresSource(db Querier, table string) *PostgresSource {
	if table == "" {
		table = DefaultPolicyTable
	}
	return &PostgresSource{DB: db, Table: table}
}

func (s *PostgresSource) Name() string {
	return "postgres:" + s.Table
}

func (s *PostgresSource) Query() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY position, lender_id", selectList(), s.Table)
}

func (s *PostgresSource) Load(ctx context.Context) ([]models.LenderPolicy, error) {
	if !tableName.MatchString(s.Table) {
		return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("invalid table name %q", s.Table)}
	}

	rows, err := s.DB.QueryContext(ctx, s.Query())
	if err != nil {
		return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("query policies: %w", err)}
	}
	defer rows.Close()

	var policies []models.LenderPolicy
	row := 0
	for rows.Next() {
		row++
		raw := make([]sql.NullString, len(Columns))
		dest := make([]interface{}, len(raw))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &LoadError{Source: s.Name(), Line: row, Err: fmt.Errorf("scan policy: %w", err)}
		}

		fields := make([]string, len(raw))
		for i, v := range raw {
			fields[i] = v.String
		}

		p, err := ParseRecord(fields)
		if err != nil {
			return nil, &LoadError{Source: s.Name(), Line: row, Lender: p.ID, Err: err}
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("iterate policies: %w", err)}
	}

	return policies, nil
}

// numeric columns are cast to text so every source parses the same record shape
func selectList() string {
	cols := make([]string, len(Columns))
	for i, col := range Columns {
		cols[i] = col + "::text"
	}
	return strings.Join(cols, ", ")
}
