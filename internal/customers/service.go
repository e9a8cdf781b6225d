package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Service exposes customer directory operations.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds a customer service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

// Input carries the customer fields accepted from the register.
type Input struct {
	FirstName string
	LastName  string
	Phone     *string
	Email     *string
}

func (in Input) validate() error {
	if in.FirstName == "" || in.LastName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	customer := &models.Customer{
		ID:        uuid.New(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Email:     input.Email,
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	customer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.FirstName = input.FirstName
	customer.LastName = input.LastName
	customer.Phone = input.Phone
	customer.Email = input.Email

	updated, err := s.repo.Update(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return updated, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, search string, limit, offset int) ([]models.Customer, error) {
	rows, err := s.repo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return nil
}
