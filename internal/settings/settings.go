package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"HRM-backend/internal/platform/db"
)

// Notification holds who receives threshold alerts and import summaries.
type Notification struct {
	AlertRecipient string `json:"alert_recipient"`
	OpsRecipient   string `json:"ops_recipient"`
}

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

// Get returns the stored row; ok=false when nothing was saved yet.
func (s *Store) Get(ctx context.Context) (Notification, bool, error) {
	var (
		n          Notification
		alert, ops sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT alert_recipient, ops_recipient
	FROM notification_settings
	WHERE id = 1`).Scan(&alert, &ops)
	if errors.Is(err, sql.ErrNoRows) {
		return Notification{}, false, nil
	}
	if err != nil {
		return Notification{}, false, err
	}
	n.AlertRecipient = alert.String
	n.OpsRecipient = ops.String
	return n, true, nil
}

func (s *Store) Save(ctx context.Context, n Notification) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO notification_settings (id, alert_recipient, ops_recipient, updated_at)
	VALUES (1, ?, ?, UTC_TIMESTAMP())
	ON DUPLICATE KEY UPDATE
	alert_recipient = VALUES(alert_recipient),
	ops_recipient   = VALUES(ops_recipient),
	updated_at      = VALUES(updated_at)`,
		nullIfEmpty(n.AlertRecipient), nullIfEmpty(n.OpsRecipient))
	return err
}

type Repository interface {
	Get(ctx context.Context) (Notification, bool, error)
	Save(ctx context.Context, n Notification) error
}

// Provider merges stored settings over the configured defaults.
type Provider struct {
	store    Repository
	defaults Notification
}

func NewProvider(store Repository, defaults Notification) *Provider {
	return &Provider{store: store, defaults: defaults}
}

// Settings never returns empty recipients when defaults are configured; a
// store failure still yields the defaults together with the error.
func (p *Provider) Settings(ctx context.Context) (Notification, error) {
	out := p.defaults
	stored, ok, err := p.store.Get(ctx)
	if err != nil {
		return out, fmt.Errorf("load notification settings: %w", err)
	}
	if !ok {
		return out, nil
	}
	if stored.AlertRecipient != "" {
		out.AlertRecipient = stored.AlertRecipient
	}
	if stored.OpsRecipient != "" {
		out.OpsRecipient = stored.OpsRecipient
	}
	return out, nil
}

var ErrInvalidAddress = errors.New("invalid email address")

func (p *Provider) Update(ctx context.Context, n Notification) (Notification, error) {
	n.AlertRecipient = strings.TrimSpace(n.AlertRecipient)
	n.OpsRecipient = strings.TrimSpace(n.OpsRecipient)
	for _, addr := range []string{n.AlertRecipient, n.OpsRecipient} {
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddressList(addr); err != nil {
			return Notification{}, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
		}
	}
	if err := p.store.Save(ctx, n); err != nil {
		return Notification{}, err
	}
	return p.Settings(ctx)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
