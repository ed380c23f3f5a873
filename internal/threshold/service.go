package threshold

import (
	"context"
	"errors"
	"fmt"
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

// ===== Service =====

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Rule, error)
	Get(ctx context.Context, id uint64) (Rule, error)
	Create(ctx context.Context, r *Rule) error
	Replace(ctx context.Context, r Rule) error
	SetActive(ctx context.Context, id uint64, active bool) error
	Delete(ctx context.Context, id uint64) error
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service { return &Service{store: store} }

// ActiveRules is what the evaluation pipeline reads on every pass.
func (s *Service) ActiveRules(ctx context.Context) ([]Rule, error) {
	return s.store.List(ctx, true)
}

// GET /threshold-rules
func (s *Service) List(ctx context.Context) ([]Rule, error) {
	rules, err := s.store.List(ctx, false)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []Rule{}
	}
	return rules, nil
}

// GET /threshold-rules/:id
func (s *Service) Get(ctx context.Context, id uint64) (Rule, error) {
	r, err := s.store.Get(ctx, id)
	return r, mapStoreErr(err)
}

// POST /threshold-rules
func (s *Service) Create(ctx context.Context, in RuleRequest) (Rule, error) {
	if err := in.validate(); err != nil {
		return Rule{}, err
	}
	r := in.toModel()
	if err := s.store.Create(ctx, &r); err != nil {
		return Rule{}, mapStoreErr(err)
	}
	return s.Get(ctx, r.ID)
}

// PUT /threshold-rules/:id
func (s *Service) Update(ctx context.Context, id uint64, in RuleRequest) (Rule, error) {
	if err := in.validate(); err != nil {
		return Rule{}, err
	}
	r := in.toModel()
	r.ID = id
	if in.Active == nil {
		cur, err := s.store.Get(ctx, id)
		if err != nil {
			return Rule{}, mapStoreErr(err)
		}
		r.Active = cur.Active
	}
	if err := s.store.Replace(ctx, r); err != nil {
		return Rule{}, mapStoreErr(err)
	}
	return s.Get(ctx, id)
}

// PATCH /threshold-rules/:id/active
func (s *Service) SetActive(ctx context.Context, id uint64, active bool) (Rule, error) {
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return Rule{}, mapStoreErr(err)
	}
	return s.Get(ctx, id)
}

// DELETE /threshold-rules/:id
func (s *Service) Delete(ctx context.Context, id uint64) error {
	return mapStoreErr(s.store.Delete(ctx, id))
}

func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRuleNotFound):
		return ErrNotFound("threshold rule not found")
	case errors.Is(err, ErrDuplicateName):
		return ErrConflict("threshold rule name already exists")
	case errors.Is(err, ErrUnknownRef):
		return ErrInvalid(ErrUnknownRef.Error())
	}
	return err
}
