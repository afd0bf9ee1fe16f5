package chat

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type sessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a Postgres-backed SessionRepo that also implements Cascader.
func NewSessionRepo(db *sql.DB) SessionRepo {
	return &sessionRepo{db: db}
}

const sessionColumns = `id, customer_id, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var status string
	if err := row.Scan(&s.ID, &s.CustomerID, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Session{}, err
	}
	s.Status = Status(status)
	return s, nil
}

// validID filters ids the uuid column would reject, so a malformed id reads as not-found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *sessionRepo) Create(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, customer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.CustomerID, string(s.Status), s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (Session, bool, error) {
	if !validID(id) {
		return Session{}, false, nil
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM chat_sessions
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return oneSession(row)
}

func (r *sessionRepo) FindByCustomerID(ctx context.Context, customerID string) (Session, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM chat_sessions
		WHERE customer_id = $1 AND deleted_at IS NULL
	`, customerID)
	return oneSession(row)
}

func oneSession(row *sql.Row) (Session, bool, error) {
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return s, true, nil
}

func (r *sessionRepo) FindAll(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM chat_sessions
		WHERE deleted_at IS NULL
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Session, bool, error) {
	if !validID(id) {
		return Session{}, false, nil
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE chat_sessions
		SET status = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+sessionColumns, id, string(status), at)
	return oneSession(row)
}

func (r *sessionRepo) SoftDelete(ctx context.Context, id string, t Tombstone) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return softDeleteSession(ctx, r.db, id, t)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func softDeleteSession(ctx context.Context, db execer, id string, t Tombstone) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE chat_sessions
		SET deleted_at = $2, deleted_by = $3
		WHERE id = $1 AND deleted_at IS NULL
	`, id, t.At, t.By)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func softDeleteMessages(ctx context.Context, db execer, sessionID string, at time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE chat_messages
		SET deleted_at = $2
		WHERE session_id = $1 AND deleted_at IS NULL
	`, sessionID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SoftDeleteCascade hides the messages and then the session in one transaction.
func (r *sessionRepo) SoftDeleteCascade(ctx context.Context, sessionID string, t Tombstone) (bool, error) {
	if !validID(sessionID) {
		return false, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := softDeleteMessages(ctx, tx, sessionID, t.At); err != nil {
		return false, err
	}
	deleted, err := softDeleteSession(ctx, tx, sessionID, t)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return deleted, nil
}

type messageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) MessageRepo {
	return &messageRepo{db: db}
}

const messageColumns = `id, session_id, sender, content, sent_at`

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	var sender string
	if err := row.Scan(&m.ID, &m.ChatSessionID, &sender, &m.Content, &m.Timestamp); err != nil {
		return Message{}, err
	}
	m.Sender = Sender(sender)
	return m, nil
}

func (r *messageRepo) Create(ctx context.Context, m Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, sender, content, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.ChatSessionID, string(m.Sender), m.Content, m.Timestamp)
	return err
}

func (r *messageRepo) FindByID(ctx context.Context, id string) (Message, bool, error) {
	if !validID(id) {
		return Message{}, false, nil
	}
	m, err := scanMessage(r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, err
	}
	return m, true, nil
}

func (r *messageRepo) FindBySessionID(ctx context.Context, sessionID string) ([]Message, error) {
	out := make([]Message, 0)
	if !validID(sessionID) {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages
		WHERE session_id = $1 AND deleted_at IS NULL
		ORDER BY sent_at ASC, seq ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *messageRepo) SoftDeleteBySessionID(ctx context.Context, sessionID string, at time.Time) (int64, error) {
	if !validID(sessionID) {
		return 0, nil
	}
	return softDeleteMessages(ctx, r.db, sessionID, at)
}
