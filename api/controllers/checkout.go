package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/tillpoint-backend/internal/checkout"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
)

type checkoutPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required"`
}

type checkoutRequest struct {
	CustomerID *string                 `json:"customer_id,omitempty"`
	Payment    *checkoutPaymentRequest `json:"payment,omitempty"`
}

// Checkout settles the user's cart into an order.
func Checkout(svc checkoutsvc.Service, m *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := parseOptionalUUID(payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{CustomerID: customerID}
		if payload.Payment != nil {
			method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Payment.Method))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.Payment = &checkoutsvc.PaymentInput{
				Amount: payload.Payment.Amount,
				Method: method,
			}
		}

		result, err := svc.Checkout(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m.IncOrdersSettled()
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
