// Package metadatastore wraps the relational metadata store of
// spec.md §4.4/§6: the sources table and list_sources view. Grounded
// on original_source/src/sql.cpp (query shapes, 3-retry reconnect
// discipline) and original_source/src/sql_pool.cpp. Per spec.md §9,
// database/sql's pooled, thread-safe *sql.DB replaces the original's
// single-threaded serializer — the external contract of spec.md §4.4
// is unchanged.
package metadatastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
)

// Kind is the typed error taxonomy of spec.md §7 (MetadataStore rows).
type Kind int

const (
	OK Kind = iota
	InvalidDatasetID
	InvalidUserID
	InvalidUsername
	DuplicateDatasetName
	SQLConnectionError
)

// Error is MetadataStore's tagged error type, generalizing the
// original's per-call boost::optional/SqlErr pattern into a single
// kind-carrying error (spec.md §9, "Polymorphism over error kinds").
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Dataset is one row of the sources table, per spec.md §3.
type Dataset struct {
	ID      []byte
	UserID  int64
	Schema  []byte
	Name    string
	Private bool
	Frozen  bool
}

// DatasetDetail additionally carries the username/email joined from
// list_sources (spec.md §6).
type DatasetDetail struct {
	Dataset
	Username string
	Email    string
}

const maxReconnectRetries = 3

// Store is a pooled MetadataStore backed by *sql.DB.
type Store struct {
	db *sql.DB
}

// Open opens a connection pool against dsn (see config.MariaDBConfig.DSN).
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "metadatastore: open")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// withRetry runs fn up to maxReconnectRetries times, retrying only on
// connection-level failures (spec.md §4.4: "transparently reconnect ...
// up to 3 retries before surfacing SQL_CONNECTION_ERROR").
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxReconnectRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isConnectionError(err) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return newError(SQLConnectionError, fmt.Sprintf("metadatastore: could not connect after %d retries: %v", maxReconnectRetries, lastErr))
}

// isConnectionError reports whether err represents a transport-level
// failure worth retrying, as opposed to a query-level failure (a
// constraint violation, a syntax error) which the caller must see
// immediately.
func isConnectionError(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// a well-formed MySQL error response means the connection is
		// fine; it is the query that failed.
		return false
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr)
}

const (
	fetchSchemaQuery = `SELECT source_schema FROM sources WHERE source_id = ?`
	createQuery      = `INSERT INTO sources (source_id, user_id, source_schema, name, private, frozen) VALUES (?, ?, ?, ?, ?, ?)`
	deleteQuery      = `UPDATE sources SET frozen = TRUE WHERE source_id = ? AND frozen = FALSE`
	getByIDQuery     = `SELECT s.source_id, s.user_id, s.source_schema, s.name, s.private, s.frozen, u.username, u.email FROM list_sources s JOIN users u ON u.user_id = s.user_id WHERE s.source_id = ?`
	getByUserQuery   = `SELECT s.source_id, s.user_id, s.source_schema, s.name, s.private, s.frozen, u.username, u.email FROM list_sources s JOIN users u ON u.user_id = s.user_id WHERE s.user_id = ?`
	getByUsernameQuery = `SELECT s.source_id, s.user_id, s.source_schema, s.name, s.private, s.frozen, u.username, u.email FROM list_sources s JOIN users u ON u.user_id = s.user_id WHERE u.username = ?`
)

// FetchSchema returns the stored schema blob for id, or
// InvalidDatasetID if no row exists.
func (s *Store) FetchSchema(ctx context.Context, id []byte) ([]byte, error) {
	var schemaBytes []byte
	err := withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, fetchSchemaQuery, id)
		if scanErr := row.Scan(&schemaBytes); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return newError(InvalidDatasetID, "metadatastore: no dataset with that id")
			}
			return scanErr
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return schemaBytes, nil
}

// CreateDataset inserts a new row. Returns DuplicateDatasetName if the
// (user_id, name) unique constraint is violated, InvalidUserID if the
// user_id foreign key fails.
func (s *Store) CreateDataset(ctx context.Context, d Dataset) error {
	err := withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, createQuery, d.ID, d.UserID, d.Schema, d.Name, d.Private, d.Frozen)
		if execErr == nil {
			return nil
		}
		var myErr *mysql.MySQLError
		if errors.As(execErr, &myErr) {
			switch myErr.Number {
			case 1062: // ER_DUP_ENTRY
				return newError(DuplicateDatasetName, "metadatastore: a dataset with that name already exists for this user")
			case 1452: // ER_NO_REFERENCED_ROW
				return newError(InvalidUserID, "metadatastore: no such user_id")
			}
		}
		return execErr
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// DeleteDataset tombstones the dataset, returning rowsUpdated: 0 if the
// dataset was already deleted or never existed (idempotent per
// spec.md §4.1 DeleteDataset), 1 if this call performed the deletion.
func (s *Store) DeleteDataset(ctx context.Context, id []byte) (rowsUpdated int64, err error) {
	runErr := withRetry(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, deleteQuery, id)
		if execErr != nil {
			return execErr
		}
		n, raErr := res.RowsAffected()
		if raErr != nil {
			return raErr
		}
		rowsUpdated = n
		return nil
	})
	if runErr != nil {
		return 0, classify(runErr)
	}
	return rowsUpdated, nil
}

// GetDatasetByID returns the full joined detail row for id.
func (s *Store) GetDatasetByID(ctx context.Context, id []byte) (*DatasetDetail, error) {
	var d DatasetDetail
	err := withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, getByIDQuery, id)
		scanErr := row.Scan(&d.ID, &d.UserID, &d.Schema, &d.Name, &d.Private, &d.Frozen, &d.Username, &d.Email)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return newError(InvalidDatasetID, "metadatastore: no dataset with that id")
		}
		return scanErr
	})
	if err != nil {
		return nil, classify(err)
	}
	return &d, nil
}

// GetDatasetsByUser returns every dataset owned by userID.
func (s *Store) GetDatasetsByUser(ctx context.Context, userID int64) ([]DatasetDetail, error) {
	var out []DatasetDetail
	err := withRetry(ctx, func() error {
		rows, queryErr := s.db.QueryContext(ctx, getByUserQuery, userID)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var d DatasetDetail
			if scanErr := rows.Scan(&d.ID, &d.UserID, &d.Schema, &d.Name, &d.Private, &d.Frozen, &d.Username, &d.Email); scanErr != nil {
				return scanErr
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// GetDatasetsByUsername returns every dataset owned by the user with
// the given username. An unknown username yields an empty, non-error
// result, the same as a user with no datasets: zero rows are not
// distinguished, and InvalidUsername is never returned.
func (s *Store) GetDatasetsByUsername(ctx context.Context, username string) ([]DatasetDetail, error) {
	var out []DatasetDetail
	err := withRetry(ctx, func() error {
		rows, queryErr := s.db.QueryContext(ctx, getByUsernameQuery, username)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			var d DatasetDetail
			if scanErr := rows.Scan(&d.ID, &d.UserID, &d.Schema, &d.Name, &d.Private, &d.Frozen, &d.Username, &d.Email); scanErr != nil {
				return scanErr
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func classify(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(SQLConnectionError, fmt.Sprintf("metadatastore: %v", err))
}
