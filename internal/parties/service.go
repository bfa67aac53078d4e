package parties

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/shared"
)

// Service exposes the party directory.
type Service struct {
	repo      Repository
	validator *validator.Validate
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validator: validator.New()}
}

// Get returns the party or an error wrapping ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Party, error) {
	if id <= 0 {
		return Party{}, fmt.Errorf("party %d: %w", id, ErrNotFound)
	}
	return s.repo.Get(ctx, id)
}

// List returns one page of parties.
func (s *Service) List(ctx context.Context, req ListPartiesRequest) ([]Party, shared.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	req.Page, req.PerPage = page.Page, page.PerPage
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Party{}
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// IsNotFound reports whether err means the party does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
