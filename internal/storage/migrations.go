package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sui1tyan/Service-Voucher-Management-System-sub000/internal/auth"
)

const (
	schemaVersionMetaKey = "schema_version"

	// SettingBaseVoucherID is the settings key the allocator reads for the
	// starting voucher number of an empty store.
	SettingBaseVoucherID = "base_voucher_id"

	// DefaultBaseVoucherID applies when the setting is absent.
	DefaultBaseVoucherID int64 = 41000

	// DefaultAdminUsername and DefaultAdminPassword are the documented
	// bootstrap credentials. Every fresh deployment starts with them and a
	// forced password change on first login; the default is a known value
	// by design of the original workflow, so rotation on first login is
	// the only mitigation.
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "ChangeMe@123"
)

type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

var defaultMigrations = []Migration{
	{
		Version:     1,
		Description: "create entity tables",
		Up: func(tx *sql.Tx) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS vouchers (
					voucher_id TEXT PRIMARY KEY,
					customer_name TEXT NOT NULL,
					contact_no TEXT,
					quantity INTEGER NOT NULL DEFAULT 1,
					particulars TEXT,
					problem TEXT,
					solution TEXT,
					received_by TEXT,
					technician TEXT,
					status TEXT NOT NULL DEFAULT 'Pending',
					document_path TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS staff (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE,
					position TEXT,
					staff_no TEXT,
					phone TEXT,
					photo_path TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					username TEXT NOT NULL UNIQUE,
					role TEXT NOT NULL,
					password_hash TEXT NOT NULL,
					active INTEGER NOT NULL DEFAULT 1,
					must_change_password INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS commissions (
					id TEXT PRIMARY KEY,
					staff_id TEXT NOT NULL,
					bill_type TEXT NOT NULL,
					bill_no TEXT NOT NULL,
					total_amount REAL NOT NULL DEFAULT 0,
					commission_amount REAL NOT NULL DEFAULT 0,
					bill_image_path TEXT,
					voucher_id TEXT,
					note TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL,
					FOREIGN KEY(staff_id) REFERENCES staff(id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL
				)`,
			}
			for _, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("apply migration v1 statement: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "add voucher billing reference columns",
		Up: func(tx *sql.Tx) error {
			columns := []columnSpec{
				{name: "bill_ref_no", definition: `TEXT`},
				{name: "amount", definition: `REAL NOT NULL DEFAULT 0`},
				{name: "commission_amount", definition: `REAL NOT NULL DEFAULT 0`},
			}
			return addColumns(tx, "vouchers", columns)
		},
	},
	{
		Version:     3,
		Description: "add voucher pickup reminder columns",
		Up: func(tx *sql.Tx) error {
			columns := []columnSpec{
				{name: "reminder1_at", definition: `TEXT`},
				{name: "reminder2_at", definition: `TEXT`},
				{name: "reminder3_at", definition: `TEXT`},
			}
			return addColumns(tx, "vouchers", columns)
		},
	},
	{
		Version:     4,
		Description: "add voucher search indexes",
		Up: func(tx *sql.Tx) error {
			statements := []string{
				`CREATE INDEX IF NOT EXISTS idx_vouchers_created_at ON vouchers(created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_vouchers_status ON vouchers(status)`,
			}
			for _, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("create voucher index: %w", err)
				}
			}
			return nil
		},
	},
}

type columnSpec struct {
	name       string
	definition string
}

// addColumns adds each missing column individually. A duplicate-column
// failure is swallowed per column: a concurrent migration reaching the
// same end state is not an error.
func addColumns(tx *sql.Tx, table string, columns []columnSpec) error {
	for _, column := range columns {
		exists, err := columnExists(tx, table, column.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := tx.Exec(`ALTER TABLE ` + table + ` ADD COLUMN ` + column.name + ` ` + column.definition); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("add %s.%s: %w", table, column.name, err)
		}
	}
	return nil
}

func DefaultMigrations() []Migration {
	out := make([]Migration, len(defaultMigrations))
	copy(out, defaultMigrations)
	return out
}

func CurrentSchemaVersion() int {
	return maxMigrationVersion(defaultMigrations)
}

func RunMigrations(db *sql.DB, migrations []Migration) error {
	if db == nil {
		return fmt.Errorf("run migrations: db is nil")
	}

	if err := ensureMigrationTables(db); err != nil {
		return err
	}

	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	current, err := readSchemaVersion(db)
	if err != nil {
		return err
	}

	maxVersion := maxMigrationVersion(ordered)
	if current > maxVersion {
		return fmt.Errorf("%w: db=%d code=%d", ErrSchemaTooNew, current, maxVersion)
	}

	for _, migration := range ordered {
		if migration.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration v%d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration v%d (%s): %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(`INSERT OR REPLACE INTO schema_migrations(version, applied_at) VALUES (?, ?)`, migration.Version, nowUTCString()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record schema migration v%d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(`INSERT OR REPLACE INTO app_meta(key, value) VALUES(?, ?)`, schemaVersionMetaKey, strconv.Itoa(migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update schema version v%d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureBootstrapAdmin guarantees at least one admin account exists after
// initialization. The insert is idempotent: a concurrent bootstrap that
// already created the row is ignored. The account carries the documented
// default password and a forced-change flag.
func ensureBootstrapAdmin(db *sql.DB) error {
	var admins int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, string(RoleAdmin)).Scan(&admins); err != nil {
		return fmt.Errorf("count admin users: %w", err)
	}
	if admins > 0 {
		return nil
	}

	hash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	now := nowUTCString()
	_, err = db.Exec(`
		INSERT OR IGNORE INTO users(id, username, role, password_hash, active, must_change_password, created_at, updated_at)
		VALUES(?, ?, ?, ?, 1, 1, ?, ?)
	`, uuid.NewString(), DefaultAdminUsername, string(RoleAdmin), hash, now, now)
	if err != nil {
		return fmt.Errorf("bootstrap admin: insert: %w", err)
	}
	return nil
}

func ensureMigrationTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS app_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`,
		`INSERT OR IGNORE INTO app_meta(key, value) VALUES('` + schemaVersionMetaKey + `', '0')`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure migration tables: %w", err)
		}
	}
	return nil
}

func readSchemaVersion(db *sql.DB) (int, error) {
	var versionStr string
	if err := db.QueryRow(`SELECT value FROM app_meta WHERE key = ?`, schemaVersionMetaKey).Scan(&versionStr); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", versionStr, err)
	}
	return version, nil
}

func maxMigrationVersion(migrations []Migration) int {
	max := 0
	for _, migration := range migrations {
		if migration.Version > max {
			max = migration.Version
		}
	}
	return max
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(`PRAGMA table_info(` + table + `)`)
	if err != nil {
		return false, fmt.Errorf("query table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dfltVal sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dfltVal, &pk); err != nil {
			return false, fmt.Errorf("scan table info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return false, nil
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
