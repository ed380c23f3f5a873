package notification

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"

	"HRM-backend/internal/platform/db"
)

var (
	ErrDuplicate = errors.New("notification already recorded")
	ErrNotFound  = errors.New("notification not found")
)

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

// Insert fails with ErrDuplicate when dedup_key is already taken.
func (s *Store) Insert(ctx context.Context, n *Notification) error {
	details, err := json.Marshal(n.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}
	var alertDate any
	if n.Details.Date != "" {
		alertDate = n.Details.Date
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO notifications
	  (notification_id, type, title, message, priority, is_read, organization_id,
	   alert_date, details, email_sent, email_recipient, dedup_key, created_at)
	VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, 0, NULL, ?, ?)`,
		n.ID, n.Type, n.Title, n.Message, n.Priority, nullUint(n.OrganizationID),
		alertDate, details, nullIfEmpty(n.DedupKey), n.CreatedAt.UTC(),
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) MarkEmailSent(ctx context.Context, id, recipient string) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE notifications SET email_sent = 1, email_recipient = ? WHERE notification_id = ?`,
		recipient, id)
	return err
}

func (s *Store) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE notification_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// already read rows report 0 affected as well
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM notifications WHERE notification_id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (Notification, error) {
	row := s.db.QueryRowContext(ctx, selectNotification+` WHERE notification_id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Notification{}, ErrNotFound
	}
	return n, err
}

const selectNotification = `
	SELECT notification_id, type, title, message, priority, is_read, organization_id,
	       details, email_sent, email_recipient, created_at
	FROM notifications`

// List returns newest first.
func (s *Store) List(ctx context.Context, q ListQuery) ([]Notification, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if q.OrganizationID != nil {
		// pooled rules list every organization they cover in details
		wheres = append(wheres, "(organization_id = ? OR JSON_CONTAINS(details, CAST(? AS JSON), '$.organization_ids'))")
		args = append(args, *q.OrganizationID, *q.OrganizationID)
	}
	if q.Date != nil && *q.Date != "" {
		wheres = append(wheres, "alert_date = ?")
		args = append(args, *q.Date)
	}
	if q.UnreadOnly {
		wheres = append(wheres, "is_read = 0")
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	var buf bytes.Buffer
	buf.WriteString(selectNotification)
	buf.WriteString(where)
	buf.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, notification_id DESC LIMIT %d OFFSET %d", q.Limit, q.Offset))

	rows, err := s.db.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (Notification, error) {
	var (
		n         Notification
		orgID     sql.NullInt64
		details   []byte
		recipient sql.NullString
		createdAt time.Time
	)
	if err := s.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Priority, &n.Read, &orgID,
		&details, &n.EmailSent, &recipient, &createdAt); err != nil {
		return Notification{}, err
	}
	if orgID.Valid {
		v := uint64(orgID.Int64)
		n.OrganizationID = &v
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &n.Details); err != nil {
			return Notification{}, fmt.Errorf("decode details of %s: %w", n.ID, err)
		}
	}
	n.EmailRecipient = recipient.String
	n.CreatedAt = createdAt.UTC()
	return n, nil
}

func nullUint(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
