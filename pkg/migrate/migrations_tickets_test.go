package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rifazone/rifazone-backend/pkg/migrate"
)

func TestTicketsMigrationContainsAllocationGuard(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_tickets.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no tickets migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS tickets",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_raffle_number ON tickets (raffle_id, number)",
		"FOREIGN KEY (sale_id) REFERENCES sales(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS tickets",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSalesMigrationContainsSettlementColumns(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_sales.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no sales migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"expected_amount NUMERIC(12,2) NOT NULL DEFAULT 0",
		"amount_paid NUMERIC(12,2)",
		"commission NUMERIC(12,2) NOT NULL DEFAULT 0",
		"status sale_status NOT NULL DEFAULT 'pending'",
		"CHECK (quantity > 0)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}
