package notification

import "time"

const (
	TypeThresholdExceeded = "threshold-exceeded"
	PriorityHigh          = "high"
)

// Details is stored as a JSON blob next to the row.
type Details struct {
	RuleID           uint64   `json:"rule_id"`
	RuleName         string   `json:"rule_name"`
	CategoryName     string   `json:"category_name"`
	OrganizationName string   `json:"organization_name"`
	CurrentCount     int      `json:"current_count"`
	Threshold        int      `json:"threshold"`
	ExceededBy       int      `json:"exceeded_by"`
	Date             string   `json:"date"`
	Breakdown        []string `json:"breakdown,omitempty"`
	OrganizationIDs  []uint64 `json:"organization_ids,omitempty"`
}

type Notification struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Priority       string    `json:"priority"`
	Read           bool      `json:"read"`
	OrganizationID *uint64   `json:"organization_id,omitempty"`
	Details        Details   `json:"details"`
	EmailSent      bool      `json:"email_sent"`
	EmailRecipient string    `json:"email_recipient,omitempty"`
	DedupKey       string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListQuery struct {
	OrganizationID *uint64
	Date           *string
	UnreadOnly     bool
	Limit          int
	Offset         int
}

type ListResponse struct {
	Items []Notification `json:"items"`
	Total int64          `json:"total"`
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)
