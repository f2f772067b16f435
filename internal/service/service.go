package service

import (
	"errors"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/pkg/validator"

	"github.com/google/uuid"
)

// Notifier receives change events after they are committed.
type Notifier interface {
	Publish(ownerID uuid.UUID, eventType string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(uuid.UUID, string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from int overflow.
	MaxPage = 1 << 20
)

// ListParams is the caller-facing list request; Normalize clamps it.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p ListParams) query(ownerID uuid.UUID) repository.ListQuery {
	return repository.ListQuery{
		OwnerID: ownerID,
		Search:  p.Search,
		Limit:   p.Limit,
		Offset:  (p.Page - 1) * p.Limit,
	}
}

type Pagination struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newPage[T any](data []T, total int64, p ListParams) *Page[T] {
	return &Page[T]{
		Data: data,
		Pagination: Pagination{
			TotalItems:  total,
			TotalPages:  (total + int64(p.Limit) - 1) / int64(p.Limit),
			CurrentPage: p.Page,
		},
	}
}

// validate runs struct validation and reports every failing field at once.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.Validation(validator.Messages(errs))
	}
	return nil
}

// storeError maps a repository failure to a client error; notFound is the
// message used when the row is missing or not owned.
func storeError(err error, notFound, internal string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal(internal, err)
}
