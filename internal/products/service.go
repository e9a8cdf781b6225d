package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Service exposes product catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds a product service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// CreateInput captures the payload for a new catalog entry.
type CreateInput struct {
	Name      string
	Barcode   *string
	Price     decimal.Decimal
	CostPrice decimal.Decimal
	Stock     int
}

// UpdateInput carries optional field updates; nil fields are left as-is.
type UpdateInput struct {
	Name      *string
	Barcode   *string
	Price     *decimal.Decimal
	CostPrice *decimal.Decimal
	Stock     *int
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() || input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must be non-negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	if err := s.ensureBarcodeFree(ctx, input.Barcode, uuid.Nil); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:        uuid.New(),
		Name:      input.Name,
		Barcode:   input.Barcode,
		Price:     input.Price,
		CostPrice: input.CostPrice,
		Stock:     input.Stock,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = *input.Name
	}
	if input.Barcode != nil {
		if err := s.ensureBarcodeFree(ctx, input.Barcode, id); err != nil {
			return nil, err
		}
		product.Barcode = input.Barcode
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		product.Price = *input.Price
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price must be non-negative")
		}
		product.CostPrice = *input.CostPrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
		}
		product.Stock = *input.Stock
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	product, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product by barcode")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, search string, limit, offset int) ([]models.Product, error) {
	rows, err := s.repo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ensureBarcodeFree(ctx context.Context, barcode *string, selfID uuid.UUID) error {
	if barcode == nil || *barcode == "" {
		return nil
	}
	existing, err := s.repo.FindByBarcode(ctx, *barcode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check barcode")
	}
	if existing.ID != selfID {
		return pkgerrors.New(pkgerrors.CodeConflict, "barcode already in use").
			WithDetails(map[string]any{"barcode": *barcode})
	}
	return nil
}
