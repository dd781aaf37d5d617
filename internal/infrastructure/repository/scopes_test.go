package repository_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/infrastructure/repository"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB renders Postgres SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=tillbook dbname=tillbook sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestKeysetScope_CastsCursorID(t *testing.T) {
	db := dryRunDB(t)
	owner := uuid.New()
	after := &pagination.Cursor{ID: uuid.New().String(), CreatedAt: 1700000000000}

	stmt := db.Model(&entity.Receipt{}).
		Scopes(repository.OwnerScope(owner), repository.KeysetScope(after)).
		Find(&[]entity.Receipt{}).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "(created_at, id) < ($2, $3::uuid)") {
		t.Fatalf("keyset predicate missing uuid cast: %s", sql)
	}
	if !strings.HasSuffix(sql, "ORDER BY created_at DESC,id DESC") {
		t.Fatalf("unexpected order: %s", sql)
	}
	if len(stmt.Vars) != 3 || stmt.Vars[1] != after.CreatedAt || stmt.Vars[2] != after.ID {
		t.Fatalf("vars = %v", stmt.Vars)
	}
}

func TestKeysetScope_FirstPageHasNoPredicate(t *testing.T) {
	db := dryRunDB(t)

	sql := db.Model(&entity.Item{}).
		Scopes(repository.OwnerScope(uuid.New()), repository.KeysetScope(nil)).
		Find(&[]entity.Item{}).Statement.SQL.String()

	if strings.Contains(sql, "created_at, id") {
		t.Fatalf("first page filtered on the cursor: %s", sql)
	}
}

func TestOwnerScope_NilOwnerMatchesNothing(t *testing.T) {
	db := dryRunDB(t)

	sql := db.Model(&entity.Item{}).
		Scopes(repository.OwnerScope(uuid.Nil)).
		Find(&[]entity.Item{}).Statement.SQL.String()

	if !strings.Contains(sql, "1 = 0") {
		t.Fatalf("nil owner was not short-circuited: %s", sql)
	}
}
