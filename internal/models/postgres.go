package models

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresDB implements Store on top of the relational schema in migrations/.
type PostgresDB struct {
	DB *sqlx.DB
}

var _ Store = (*PostgresDB)(nil)

func NewPostgresDB(db *sqlx.DB) *PostgresDB {
	return &PostgresDB{DB: db}
}

// OpenPostgres connects to dsn and brings the schema up to date.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresDB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := MigratePostgres(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return NewPostgresDB(db), nil
}

// MigratePostgres applies the embedded migrations. The handle is left open.
func MigratePostgres(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	drv, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (m *PostgresDB) Close(context.Context) error {
	return m.DB.Close()
}

func pgErr(err error) error {
	var pqErr *pq.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNoRecord
	case errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	case errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation:
		if strings.HasSuffix(pqErr.Constraint, "_user_id_fkey") {
			return fmt.Errorf("%w: %s", ErrUnknownUser, pqErr.Constraint)
		}
		return fmt.Errorf("%w: %s", ErrNoRecord, pqErr.Constraint)
	}
	return err
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRecord
	}
	return nil
}

// --- users & roles ---

const userColumns = `id, phone, COALESCE(email, '') AS email, password_hash, role_id,
	COALESCE(first_name, '') AS first_name, COALESCE(last_name, '') AS last_name,
	COALESCE(address, '') AS address, registration_date`

func (m *PostgresDB) InsertUser(ctx context.Context, u User) (int64, error) {
	query := `INSERT INTO users (phone, email, password_hash, role_id, first_name, last_name, address, registration_date)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING id`

	var id int64
	err := m.DB.QueryRowxContext(ctx, query,
		u.Phone, u.Email, u.PasswordHash, u.RoleID, u.FirstName, u.LastName, u.Address, u.RegisteredAt,
	).Scan(&id)
	if err != nil {
		return 0, pgErr(err)
	}
	return id, nil
}

func (m *PostgresDB) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := m.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return u, pgErr(err)
}

func (m *PostgresDB) GetUserByEmail(ctx context.Context, email string) (User, error) {
	if email == "" {
		return User{}, ErrNoRecord
	}
	var u User
	err := m.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return u, pgErr(err)
}

func (m *PostgresDB) UserExists(ctx context.Context, email, phone string) (bool, error) {
	var exists bool
	err := m.DB.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1 OR ($2 <> '' AND email = $2))`,
		phone, email,
	).Scan(&exists)
	return exists, err
}

func (m *PostgresDB) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := m.DB.GetContext(ctx, &n, `SELECT count(*) FROM users`)
	return n, err
}

func (m *PostgresDB) GetRole(ctx context.Context, id int) (Role, error) {
	var r Role
	err := m.DB.GetContext(ctx, &r, `SELECT id, name FROM roles WHERE id = $1`, id)
	return r, pgErr(err)
}
