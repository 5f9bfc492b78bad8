package controller

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Repository defines controller persistence operations.
type Repository interface {
	// GetByUID returns ErrControllerNotFound if the UID is not stored.
	GetByUID(ctx context.Context, uid string) (*Controller, error)

	// List returns every controller ordered by name.
	List(ctx context.Context) ([]Controller, error)

	// Create returns ErrAlreadyPaired if the UID is already stored.
	Create(ctx context.Context, c *Controller) error

	// Update rewrites name, address and parameter count.
	Update(ctx context.Context, c *Controller) error

	Delete(ctx context.Context, uid string) error

	// Touch records a successful poll.
	Touch(ctx context.Context, uid string, seen time.Time, paramCount int) error
}

// SQLiteRepository implements Repository on the controllers table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT uid, name, host, port, param_count, paired_at, last_seen_at FROM controllers`

// GetByUID retrieves a controller by UID.
func (r *SQLiteRepository) GetByUID(ctx context.Context, uid string) (*Controller, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE uid = ?`, uid)
	c, err := scanController(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrControllerNotFound
		}
		return nil, fmt.Errorf("querying controller by uid: %w", err)
	}
	return c, nil
}

// List retrieves all controllers.
func (r *SQLiteRepository) List(ctx context.Context) ([]Controller, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY name, uid`)
	if err != nil {
		return nil, fmt.Errorf("querying controllers: %w", err)
	}
	defer rows.Close()

	var out []Controller
	for rows.Next() {
		c, err := scanController(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning controller: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating controllers: %w", err)
	}
	return out, nil
}

// Create inserts a controller. PairedAt defaults to now.
func (r *SQLiteRepository) Create(ctx context.Context, c *Controller) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.PairedAt.IsZero() {
		c.PairedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO controllers (uid, name, host, port, param_count, paired_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UID,
		c.Name,
		c.Host,
		c.Port,
		c.ParamCount,
		c.PairedAt.UTC().Format(time.RFC3339),
		nullableTime(c.LastSeenAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyPaired, c.UID)
		}
		return fmt.Errorf("inserting controller: %w", err)
	}
	return nil
}

// Update modifies an existing controller.
func (r *SQLiteRepository) Update(ctx context.Context, c *Controller) error {
	if err := c.Validate(); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE controllers SET name = ?, host = ?, port = ?, param_count = ?
		WHERE uid = ?`,
		c.Name, c.Host, c.Port, c.ParamCount, c.UID)
	if err != nil {
		return fmt.Errorf("updating controller: %w", err)
	}
	return requireRow(result)
}

// Delete removes a controller.
func (r *SQLiteRepository) Delete(ctx context.Context, uid string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM controllers WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("deleting controller: %w", err)
	}
	return requireRow(result)
}

// Touch sets last_seen_at and the parameter count.
func (r *SQLiteRepository) Touch(ctx context.Context, uid string, seen time.Time, paramCount int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE controllers SET last_seen_at = ?, param_count = ? WHERE uid = ?`,
		seen.UTC().Format(time.RFC3339), paramCount, uid)
	if err != nil {
		return fmt.Errorf("touching controller: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrControllerNotFound
	}
	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanController(s rowScanner) (*Controller, error) {
	var c Controller
	var pairedAt string
	var lastSeen sql.NullString

	if err := s.Scan(&c.UID, &c.Name, &c.Host, &c.Port, &c.ParamCount, &pairedAt, &lastSeen); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, pairedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing paired_at: %w", err)
	}
	c.PairedAt = t

	if lastSeen.Valid {
		if t, err := time.Parse(time.RFC3339, lastSeen.String); err == nil {
			c.LastSeenAt = &t
		}
	}
	return &c, nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// isConstraintError reports a primary key or unique violation.
func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
