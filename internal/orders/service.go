package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Detail pairs a stored order with its recomputed totals.
type Detail struct {
	Order   models.Order
	Derived Derived
}

// Service exposes the orders read model.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, limit, offset int) ([]Detail, error)
}

type service struct {
	repo *Repository
}

// NewService builds an order read service backed by the repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &Detail{Order: *order, Derived: Derive(order)}, nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Detail, error) {
	rows, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	details := make([]Detail, 0, len(rows))
	for i := range rows {
		details = append(details, Detail{Order: rows[i], Derived: Derive(&rows[i])})
	}
	return details, nil
}
