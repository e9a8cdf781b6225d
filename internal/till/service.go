package till

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the single-open-till-per-user session lifecycle.
type Service interface {
	Open(ctx context.Context, userID uuid.UUID, input OpenInput) (*models.Till, error)
	Close(ctx context.Context, userID uuid.UUID, input CloseInput) (*Summary, error)
	Current(ctx context.Context, userID uuid.UUID) (*Summary, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Till, error)
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds a till service backed by the provided stack.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("till repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// OpenInput carries the float handed to the cashier at session start.
type OpenInput struct {
	CashHandedOver decimal.Decimal
	CardHandedOver decimal.Decimal
}

// CloseInput carries the counted drawer figures and the caller-computed
// reconciliation deltas.
type CloseInput struct {
	CashCounted decimal.Decimal
	CardCounted decimal.Decimal
	Shortage    decimal.Decimal
	Surplus     decimal.Decimal
}

// Summary is a till with its scoped payments and per-method sales sums.
type Summary struct {
	Till           models.Till
	Payments       []models.Payment
	TotalCashSales decimal.Decimal
	TotalCardSales decimal.Decimal
}

// Open starts a session. The open-till check and the insert run in one
// transaction so two racing opens cannot both succeed.
func (s *service) Open(ctx context.Context, userID uuid.UUID, input OpenInput) (*models.Till, error) {
	if input.CashHandedOver.IsNegative() || input.CardHandedOver.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handed-over amounts must be non-negative")
	}

	var created *models.Till
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		_, err := repo.FindOpenByUser(ctx, userID)
		if err == nil {
			return pkgerrors.New(pkgerrors.CodeTillAlreadyOpen, "user already has an open till")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open till")
		}

		created, err = repo.Create(ctx, &models.Till{
			ID:             uuid.New(),
			UserID:         userID,
			OpenedAt:       s.now(),
			CashHandedOver: input.CashHandedOver,
			CardHandedOver: input.CardHandedOver,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create till")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Close ends the user's open session, storing the counted figures
// verbatim, and returns the till with its scoped payments for audit.
func (s *service) Close(ctx context.Context, userID uuid.UUID, input CloseInput) (*Summary, error) {
	if input.CashCounted.IsNegative() || input.CardCounted.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted amounts must be non-negative")
	}
	if input.Shortage.IsNegative() || input.Surplus.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shortage and surplus must be non-negative")
	}

	var closed *models.Till
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		till, err := repo.FindOpenByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNoOpenTill, "no open till for user")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open till")
		}

		at := s.now()
		till.ClosedAt = &at
		till.CashHandedOver = input.CashCounted
		till.CardHandedOver = input.CardCounted
		till.Shortage = input.Shortage
		till.Surplus = input.Surplus
		if err := repo.Save(ctx, till); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close till")
		}
		closed = till
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, closed)
}

// Current returns the user's open session with running sales sums.
func (s *service) Current(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	till, err := s.repo.FindOpenByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNoOpenTill, "no open till for user")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open till")
	}
	return s.summarize(ctx, till)
}

// History lists the user's past sessions.
func (s *service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Till, error) {
	rows, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tills")
	}
	return rows, nil
}

func (s *service) summarize(ctx context.Context, till *models.Till) (*Summary, error) {
	payments, err := s.repo.ListPayments(ctx, till.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list till payments")
	}

	summary := &Summary{Till: *till, Payments: payments}
	for _, p := range payments {
		switch p.Method {
		case enums.PaymentMethodCash:
			summary.TotalCashSales = summary.TotalCashSales.Add(p.Amount)
		case enums.PaymentMethodCard:
			summary.TotalCardSales = summary.TotalCardSales.Add(p.Amount)
		}
	}
	return summary, nil
}
