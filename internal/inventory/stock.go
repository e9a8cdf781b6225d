package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Deduct atomically removes qty units of stock inside the caller's
// transaction. The guard clause makes the decrement and the sufficiency
// check a single statement, so concurrent checkouts racing for the last
// units serialize on the product row and the loser gets a typed
// insufficient-stock error with the remaining quantity.
func Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "deduct quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock deduction")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var product models.Product
	err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product after failed deduction")
	}

	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for "+product.Name).
		WithDetails(map[string]any{
			"product_id":   product.ID,
			"product_name": product.Name,
			"available":    product.Stock,
			"requested":    qty,
		})
}

// Restock adds qty units back, used by purchase receiving and sale
// returns. Stock only grows here, so no guard beyond product existence.
func Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for restock")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	return nil
}
