package alerting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"strconv"
	"strings"

	"HRM-backend/internal/notification"
	"HRM-backend/internal/platform/mail"
	"HRM-backend/internal/platform/push"
	"HRM-backend/internal/settings"
	"HRM-backend/internal/threshold"
)

type NotificationWriter interface {
	Create(ctx context.Context, n notification.Notification) (notification.Notification, error)
	MarkEmailSent(ctx context.Context, id, recipient string) error
}

type SettingsProvider interface {
	Settings(ctx context.Context) (settings.Notification, error)
}

// Outcome of one breach. Duplicate means the (rule, date) pair was already
// notified and nothing else was attempted.
type Outcome struct {
	NotificationID string `json:"notification_id,omitempty"`
	Persisted      bool   `json:"persisted"`
	EmailSent      bool   `json:"email_sent"`
	PushSent       bool   `json:"push_sent"`
	Duplicate      bool   `json:"duplicate"`
}

type Notifier struct {
	notes            NotificationWriter
	mailer           mail.Sender
	push             push.Sender // optional
	settings         SettingsProvider
	defaultRecipient string
}

func NewNotifier(notes NotificationWriter, mailer mail.Sender, pusher push.Sender, sp SettingsProvider, defaultRecipient string) *Notifier {
	return &Notifier{
		notes:            notes,
		mailer:           mailer,
		push:             pusher,
		settings:         sp,
		defaultRecipient: defaultRecipient,
	}
}

// DedupKey is unique per rule and day.
func DedupKey(ruleID uint64, date string) string {
	return "threshold:" + strconv.FormatUint(ruleID, 10) + ":" + date
}

// Notify persists the breach, then mails it. Only a persistence failure is
// returned; delivery failures are logged and reflected in the outcome.
func (n *Notifier) Notify(ctx context.Context, b Breach) (Outcome, error) {
	rec, err := n.notes.Create(ctx, buildNotification(b))
	if err != nil {
		if errors.Is(err, notification.ErrDuplicate) {
			log.Printf("[INFO] threshold %q already notified for %s", b.Rule.Name, b.Date)
			return Outcome{Duplicate: true}, nil
		}
		return Outcome{}, fmt.Errorf("persist notification for rule %d: %w", b.Rule.ID, err)
	}
	out := Outcome{NotificationID: rec.ID, Persisted: true}

	if n.mailer != nil {
		to := n.recipient(ctx)
		if err := n.sendMail(ctx, to, b); err != nil {
			log.Printf("[ERROR] threshold alert mail to %s (rule %d, %s): %v", to, b.Rule.ID, b.Date, err)
		} else {
			out.EmailSent = true
			if err := n.notes.MarkEmailSent(ctx, rec.ID, to); err != nil {
				log.Printf("[WARN] mark notification %s as mailed: %v", rec.ID, err)
			}
		}
	}

	if n.push != nil {
		err := n.push.Send(ctx, push.Alert{
			Title: rec.Title,
			Body:  rec.Message,
			Data: map[string]string{
				"notification_id": rec.ID,
				"type":            rec.Type,
				"date":            b.Date,
			},
		})
		if err != nil {
			log.Printf("[WARN] push for notification %s: %v", rec.ID, err)
		} else {
			out.PushSent = true
		}
	}
	return out, nil
}

func (n *Notifier) recipient(ctx context.Context) string {
	var configured string
	if n.settings != nil {
		st, err := n.settings.Settings(ctx)
		if err != nil {
			log.Printf("[WARN] threshold alert: load settings: %v", err)
		}
		configured = st.AlertRecipient
	}
	return mail.Recipient(configured, n.defaultRecipient)
}

func buildNotification(b Breach) notification.Notification {
	cats := strings.Join(b.Categories, ", ")
	orgs := strings.Join(b.Organizations, ", ")
	nt := notification.Notification{
		Type:     notification.TypeThresholdExceeded,
		Title:    "Attendance threshold exceeded: " + cats,
		Message:  fmt.Sprintf("%d attending on %s against a limit of %d (%s)", b.Total, b.Date, b.Rule.Threshold, strings.Join(b.Labels, ", ")),
		Priority: notification.PriorityHigh,
		Details: notification.Details{
			RuleID:           b.Rule.ID,
			RuleName:         b.Rule.Name,
			CategoryName:     cats,
			OrganizationName: orgs,
			CurrentCount:     b.Total,
			Threshold:        b.Rule.Threshold,
			ExceededBy:       b.ExceededBy(),
			Date:             b.Date,
			Breakdown:        b.Labels,
			OrganizationIDs:  ruleOrganizations(b.Rule),
		},
		DedupKey: DedupKey(b.Rule.ID, b.Date),
	}
	if ids := nt.Details.OrganizationIDs; len(ids) > 0 {
		org := ids[0]
		nt.OrganizationID = &org
	}
	return nt
}

// ruleOrganizations returns the distinct organization ids in criteria order.
func ruleOrganizations(r threshold.Rule) []uint64 {
	seen := make(map[uint64]bool, len(r.Criteria))
	var ids []uint64
	for _, c := range r.Criteria {
		if seen[c.OrganizationID] {
			continue
		}
		seen[c.OrganizationID] = true
		ids = append(ids, c.OrganizationID)
	}
	return ids
}

var alertTmpl = template.Must(template.New("threshold_alert").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2 style="color:#c0392b">Attendance threshold exceeded</h2>
<p>Rule <strong>{{.Rule}}</strong> on {{.Date}}</p>
<table cellpadding="4">
<tr><td>Organizations</td><td>{{.Organizations}}</td></tr>
<tr><td>Categories</td><td>{{.Categories}}</td></tr>
<tr><td>Current count</td><td>{{.Total}}</td></tr>
<tr><td>Threshold</td><td>{{.Threshold}}</td></tr>
<tr><td>Exceeded by</td><td>{{.ExceededBy}}</td></tr>
</table>
<h3>Breakdown</h3>
<ul>{{range .Labels}}<li>{{.}}</li>{{end}}</ul>
</body></html>`))

func (n *Notifier) sendMail(ctx context.Context, to string, b Breach) error {
	if to == "" {
		return mail.ErrNoRecipient
	}
	var buf bytes.Buffer
	err := alertTmpl.Execute(&buf, map[string]any{
		"Rule":          b.Rule.Name,
		"Date":          b.Date,
		"Organizations": strings.Join(b.Organizations, ", "),
		"Categories":    strings.Join(b.Categories, ", "),
		"Total":         b.Total,
		"Threshold":     b.Rule.Threshold,
		"ExceededBy":    b.ExceededBy(),
		"Labels":        b.Labels,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return n.mailer.Send(ctx, mail.Message{
		To:       to,
		Subject:  fmt.Sprintf("[HR alert] %s: %d over limit on %s", b.Rule.Name, b.ExceededBy(), b.Date),
		HTMLBody: buf.String(),
	})
}
