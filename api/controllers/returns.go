package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	returnsvc "github.com/angelmondragon/tillpoint-backend/internal/returns"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
)

type returnLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type processReturnRequest struct {
	OrderID string              `json:"order_id" validate:"required,uuid"`
	Type    string              `json:"type" validate:"required"`
	Items   []returnLineRequest `json:"items,omitempty" validate:"omitempty,dive"`
	Notes   *string             `json:"notes,omitempty"`
}

// ReturnStart verifies return eligibility and returns the order detail
// the register renders during the return flow.
func ReturnStart(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Start(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// ReturnProcess executes a full or partial sale return.
func ReturnProcess(svc returnsvc.Service, m *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload processReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOptionalUUID(&payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseSaleReturnType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return type"))
			return
		}

		items := make([]returnsvc.ReturnLine, 0, len(payload.Items))
		for _, line := range payload.Items {
			productID, err := parseOptionalUUID(&line.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			items = append(items, returnsvc.ReturnLine{
				ProductID: *productID,
				Quantity:  line.Quantity,
			})
		}

		result, err := svc.Process(r.Context(), userID, returnsvc.ProcessInput{
			OrderID: *orderID,
			Type:    kind,
			Items:   items,
			Notes:   payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m.IncReturnsProcessed(string(kind))
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
