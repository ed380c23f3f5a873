package masterdata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		}
	}
	return 500
}

const maxNameLen = 255

type Repository interface {
	List(ctx context.Context, k Kind) ([]Entry, error)
	Get(ctx context.Context, k Kind, id uint64) (Entry, error)
	Create(ctx context.Context, k Kind, name string) (Entry, error)
	Rename(ctx context.Context, k Kind, id uint64, name string) error
	Delete(ctx context.Context, k Kind, id uint64) error
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service { return &Service{store: store} }

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalid("name is required")
	}
	if len([]rune(name)) > maxNameLen {
		return "", ErrInvalid(fmt.Sprintf("name must be at most %d characters", maxNameLen))
	}
	return name, nil
}

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// ===== entries =====

func (s *Service) List(ctx context.Context, k Kind) ([]Entry, error) {
	res, err := s.store.List(ctx, k)
	if err != nil {
		log.Printf("[ERROR] list %s: %v", k.Table, err)
		return nil, ErrInternal("failed to list " + k.Label)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, k Kind, id uint64) (Entry, error) {
	e, err := s.store.Get(ctx, k, id)
	if err != nil {
		return Entry{}, s.mapErr(k, "get", err)
	}
	return e, nil
}

func (s *Service) Create(ctx context.Context, k Kind, name string) (Entry, error) {
	n, err := normalizeName(name)
	if err != nil {
		return Entry{}, err
	}
	e, err := s.store.Create(ctx, k, n)
	if err != nil {
		return Entry{}, s.mapErr(k, "create", err)
	}
	return e, nil
}

func (s *Service) Rename(ctx context.Context, k Kind, id uint64, name string) (Entry, error) {
	n, err := normalizeName(name)
	if err != nil {
		return Entry{}, err
	}
	if err := s.store.Rename(ctx, k, id, n); err != nil {
		return Entry{}, s.mapErr(k, "update", err)
	}
	return Entry{ID: id, Name: n}, nil
}

// Delete refuses entries still referenced by employees or threshold criteria.
func (s *Service) Delete(ctx context.Context, k Kind, id uint64) error {
	if err := s.store.Delete(ctx, k, id); err != nil {
		return s.mapErr(k, "delete", err)
	}
	return nil
}

func (s *Service) mapErr(k Kind, op string, err error) error {
	switch {
	case isNoRows(err):
		return ErrNotFound(k.Label + " not found")
	case mysqlErrno(err) == 1062:
		return ErrConflict(k.Label + " name already exists")
	case mysqlErrno(err) == 1451:
		return ErrConflict(k.Label + " is still in use")
	}
	log.Printf("[ERROR] %s %s: %v", op, k.Table, err)
	return ErrInternal("failed to " + op + " " + k.Label)
}
