package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds a migrated test database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies migrations. The
// test is skipped when the variable is not set.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, database.RunMigrations(dsn))

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(context.Background()))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes every row written by the repositories.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"scorecard_items",
		"scorecards",
		"kpi_measurements",
		"kpi_definitions",
		"shop_rollups",
		"weekly_rollups",
		"daily_rollups",
		"overtime_authorizations",
		"time_entries",
		"time_codes",
		"labor_policies",
		"technicians",
		"vehicle_mileage_logs",
		"cost_ledger_entries",
		"work_orders",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the pool.
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func createTechnician(t *testing.T, db *database.DB, companyID string, departmentID string) string {
	t.Helper()
	id := newID(t)
	var dept interface{}
	if departmentID != "" {
		dept = departmentID
	}
	_, err := db.Exec(context.Background(), `
		INSERT INTO technicians (id, company_id, department_id, employee_code, full_name)
		VALUES ($1, $2, $3, $4, $5)
	`, id, companyID, dept, "EMP-"+id[len(id)-6:], "Tech "+id[len(id)-4:])
	require.NoError(t, err)
	return id
}
