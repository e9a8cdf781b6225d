package till

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// Repository exposes persistence operations for till sessions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a till repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new till session.
func (r *Repository) Create(ctx context.Context, till *models.Till) (*models.Till, error) {
	if err := r.db.WithContext(ctx).Create(till).Error; err != nil {
		return nil, err
	}
	return till, nil
}

// Save persists mutable till fields at close.
func (r *Repository) Save(ctx context.Context, till *models.Till) error {
	return r.db.WithContext(ctx).
		Model(&models.Till{}).
		Where("id = ?", till.ID).
		Updates(map[string]any{
			"closed_at":        till.ClosedAt,
			"cash_handed_over": till.CashHandedOver,
			"card_handed_over": till.CardHandedOver,
			"shortage":         till.Shortage,
			"surplus":          till.Surplus,
		}).Error
}

// FindOpenByUser returns the user's till with a null ClosedAt, if any.
func (r *Repository) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.Till, error) {
	var till models.Till
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND closed_at IS NULL", userID).
		First(&till).Error
	if err != nil {
		return nil, err
	}
	return &till, nil
}

// FindByID loads a till by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Till, error) {
	var till models.Till
	if err := r.db.WithContext(ctx).First(&till, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &till, nil
}

// ListByUser returns the user's till sessions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Till, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("opened_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var rows []models.Till
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPayments returns all payments scoped to a till, oldest first.
func (r *Repository) ListPayments(ctx context.Context, tillID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("till_id = ?", tillID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
