package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Service exposes supplier directory operations.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds a supplier service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{repo: repo}, nil
}

// Input carries the supplier fields accepted from purchasing.
type Input struct {
	FullName string
	Phone    *string
	Email    *string
}

func (s *service) Create(ctx context.Context, input Input) (*models.Supplier, error) {
	if input.FullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	supplier := &models.Supplier{
		ID:       uuid.New(),
		FullName: input.FullName,
		Phone:    input.Phone,
		Email:    input.Email,
	}
	created, err := s.repo.Create(ctx, supplier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Supplier, error) {
	if input.FullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	supplier, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.FullName = input.FullName
	supplier.Phone = input.Phone
	supplier.Email = input.Email

	updated, err := s.repo.Update(ctx, supplier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
	}
	return updated, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

func (s *service) List(ctx context.Context, search string, limit, offset int) ([]models.Supplier, error) {
	rows, err := s.repo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return nil
}
