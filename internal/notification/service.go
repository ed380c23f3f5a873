package notification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		}
	}
	return 500
}

// ===== interfaces =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	MarkEmailSent(ctx context.Context, id, recipient string) error
	MarkRead(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Notification, error)
	List(ctx context.Context, q ListQuery) ([]Notification, int64, error)
}

// ===== Service =====

type Service struct {
	store Repository
	clock Clock
	id    IDGen
}

func NewService(store Repository) *Service {
	return &Service{store: store, clock: realClock{}, id: ulidGen{}}
}

// Create assigns id and timestamp and persists n. A taken dedup key
// surfaces as ErrDuplicate.
func (s *Service) Create(ctx context.Context, n Notification) (Notification, error) {
	id, err := s.id.New()
	if err != nil {
		return Notification{}, fmt.Errorf("generate id: %w", err)
	}
	n.ID = id
	n.CreatedAt = s.clock.Now().UTC()
	n.Read = false
	n.EmailSent = false
	n.EmailRecipient = ""
	if err := s.store.Insert(ctx, &n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (s *Service) MarkEmailSent(ctx context.Context, id, recipient string) error {
	return s.store.MarkEmailSent(ctx, id, recipient)
}

// GET /notifications
func (s *Service) List(ctx context.Context, q ListQuery) (ListResponse, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Date != nil && *q.Date != "" {
		if _, err := time.Parse("2006-01-02", *q.Date); err != nil {
			return ListResponse{}, &APIError{Code: CodeInvalidArgument, Message: "date must be YYYY-MM-DD"}
		}
	}
	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return ListResponse{}, err
	}
	return ListResponse{Items: items, Total: total}, nil
}

// PATCH /notifications/:id/read
func (s *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return Notification{}, &APIError{Code: CodeInvalidArgument, Message: "invalid notification id"}
	}
	if err := s.store.MarkRead(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Notification{}, &APIError{Code: CodeNotFound, Message: "notification not found"}
		}
		return Notification{}, err
	}
	n, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Notification{}, &APIError{Code: CodeNotFound, Message: "notification not found"}
	}
	return n, err
}
