package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// discountRequest is the optional discount spec accepted on cart and
// invoice payloads. Both fields must be present or both absent.
type discountRequest struct {
	Type  *string          `json:"discount_type,omitempty"`
	Value *decimal.Decimal `json:"discount_value,omitempty"`
}

func (d discountRequest) toDiscount() (pricing.Discount, error) {
	if d.Type == nil && d.Value == nil {
		return pricing.Discount{}, nil
	}
	if d.Type == nil || d.Value == nil {
		return pricing.Discount{}, pkgerrors.New(pkgerrors.CodeValidation, "discount_type and discount_value must be provided together")
	}
	kind, err := enums.ParseDiscountType(strings.TrimSpace(*d.Type))
	if err != nil {
		return pricing.Discount{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	discount := pricing.NewDiscount(&kind, *d.Value)
	if err := discount.Validate(); err != nil {
		return pricing.Discount{}, err
	}
	return discount, nil
}

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return parsed, nil
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier")
	}
	return &parsed, nil
}
