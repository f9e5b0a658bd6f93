package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	etims "github.com/goliatone/go-etims"
	"github.com/goliatone/go-etims/core"
	sqlstore "github.com/goliatone/go-etims/store/sql"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	found := map[string]bool{}
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		found[entry.Dialect] = true
	}
	if !found[DialectPostgres] || !found[DialectSQLite] {
		t.Fatalf("expected postgres and sqlite filesystems, got %v", found)
	}
}

func TestFilesystems_RejectsTreeWithoutMigrations(t *testing.T) {
	source := fstest.MapFS{
		"data/sql/migrations/README":        &fstest.MapFile{Data: []byte("empty")},
		"data/sql/migrations/sqlite/README": &fstest.MapFile{Data: []byte("empty")},
	}
	if _, err := Filesystems(source); err == nil {
		t.Fatalf("expected error for tree without up migrations")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect+":"+label)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite+":"+SourceLabel {
		t.Fatalf("expected one sqlite registration, got %v", calls)
	}
	if reg.SourceLabel != SourceLabel {
		t.Fatalf("unexpected source label %q", reg.SourceLabel)
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected error without register function")
	}
}

func TestTokenMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := etims.GetMigrationsFS()
	for _, path := range []string{
		"data/sql/migrations/00001_etims_tokens.up.sql",
		"data/sql/migrations/00001_etims_tokens.down.sql",
		"data/sql/migrations/sqlite/00001_etims_tokens.up.sql",
		"data/sql/migrations/sqlite/00001_etims_tokens.down.sql",
	} {
		if _, err := fs.Stat(root, path); err != nil {
			t.Fatalf("expected migration %s: %v", path, err)
		}
	}
}

func TestSQLiteTokenMigration_ApplyAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", "file:migrations-etims-tokens?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(etims.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_etims_tokens.up.sql"); err != nil {
		t.Fatalf("apply up: %v", err)
	}

	insert := `INSERT INTO etims_tokens (id, environment, value) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "a", "sandbox", "token-1"); err != nil {
		t.Fatalf("insert token: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "b", "sandbox", "token-2"); err == nil {
		t.Fatalf("expected unique environment constraint")
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_etims_tokens.down.sql"); err != nil {
		t.Fatalf("apply down: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='etims_tokens'`).Scan(&count); err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected table dropped on rollback")
	}
}

func TestRegister_MigratesTokenStoreThroughPersistence(t *testing.T) {
	ctx := context.Background()
	client, err := sqlstore.OpenPersistence(sqlstore.PersistenceConfig{
		Driver:       sqlstore.DriverSQLite,
		DSN:          fmt.Sprintf("file:migrations-persistence-%d?mode=memory&cache=shared", time.Now().UnixNano()),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open persistence: %v", err)
	}
	defer func() { _ = client.Close() }()

	_, err = Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := sqlstore.NewTokenStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	expiresAt := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	if err := store.Set(ctx, core.EnvironmentProduction, core.CachedToken{Value: "prod-token", ExpiresAt: &expiresAt}); err != nil {
		t.Fatalf("set token: %v", err)
	}
	token, err := store.Get(ctx, core.EnvironmentProduction)
	if err != nil || token.Value != "prod-token" {
		t.Fatalf("expected migrated table to hold token, got %+v %v", token, err)
	}
}

func TestMigrate_SelectsTreeByDriver(t *testing.T) {
	ctx := context.Background()
	client, err := sqlstore.OpenPersistence(sqlstore.PersistenceConfig{
		Driver:       sqlstore.DriverSQLite,
		DSN:          fmt.Sprintf("file:migrations-driver-%d?mode=memory&cache=shared", time.Now().UnixNano()),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open persistence: %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := Migrate(ctx, client, sqlstore.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var count int
	if err := client.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='etims_tokens'`).Scan(&count); err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected etims_tokens table after migrate")
	}
}

func TestMigrate_RejectsUnknownDriver(t *testing.T) {
	if err := Migrate(context.Background(), nil, sqlstore.DriverSQLite); err == nil {
		t.Fatalf("expected error without client")
	}
	if normalizeDialect("mysql") != "" {
		t.Fatalf("expected mysql to be unsupported")
	}
	if normalizeDialect(sqlstore.DriverSQLite) != DialectSQLite || normalizeDialect("PostgreSQL") != DialectPostgres {
		t.Fatalf("unexpected dialect normalization")
	}
}

func TestWithSourceLabel_OverridesDefault(t *testing.T) {
	var labels []string
	_, err := Register(context.Background(), func(_ context.Context, _ string, label string, _ fs.FS) error {
		labels = append(labels, label)
		return nil
	}, WithSourceLabel("  billing  "), WithValidationTargets("pg", "postgres"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(labels) != 1 || labels[0] != "billing" {
		t.Fatalf("expected single postgres registration labelled billing, got %v", labels)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
