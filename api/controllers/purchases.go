package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	purchasingsvc "github.com/angelmondragon/tillpoint-backend/internal/purchasing"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
)

type purchaseAddItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	CostPrice *decimal.Decimal `json:"cost_price,omitempty"`
	discountRequest
}

type purchaseReceiveRequest struct {
	SupplierID    *string         `json:"supplier_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number" validate:"required"`
	PurchaseDate  *time.Time      `json:"purchase_date,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus string          `json:"payment_status" validate:"required"`
	discountRequest
}

// PurchaseCartFetch returns the staged purchasing cart.
func PurchaseCartFetch(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PurchaseCartAddItem stages a product on the purchasing cart.
func PurchaseCartAddItem(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parseOptionalUUID(&payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := payload.toDiscount()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), userID, purchasingsvc.AddItemInput{
			ProductID: *productID,
			Quantity:  payload.Quantity,
			CostPrice: payload.CostPrice,
			Discount:  discount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PurchaseCartUpdateQuantity sets the quantity of a staged line.
func PurchaseCartUpdateQuantity(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateQuantity(r.Context(), userID, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PurchaseCartSetItemDiscount applies a discount spec to a staged line.
func PurchaseCartSetItemDiscount(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := payload.toDiscount()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetItemDiscount(r.Context(), userID, productID, discount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PurchaseCartRemoveItem drops a staged line.
func PurchaseCartRemoveItem(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// PurchaseCartEmpty discards the staged purchasing cart.
func PurchaseCartEmpty(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.EmptyCart(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "emptied"})
	}
}

// PurchaseReceive settles the staged cart into a stock-incrementing purchase.
func PurchaseReceive(svc purchasingsvc.Service, m *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseReceiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := parseOptionalUUID(payload.SupplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePaymentStatus(strings.TrimSpace(payload.PaymentStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		discount, err := payload.toDiscount()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := purchasingsvc.ReceiveInput{
			SupplierID:      supplierID,
			InvoiceNumber:   strings.TrimSpace(payload.InvoiceNumber),
			Notes:           payload.Notes,
			InvoiceDiscount: discount,
			PaidAmount:      payload.PaidAmount,
			PaymentStatus:   status,
		}
		if payload.PurchaseDate != nil {
			input.PurchaseDate = *payload.PurchaseDate
		}

		detail, err := svc.Receive(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m.IncPurchasesReceived()
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// PurchaseList returns received purchases with derived balances.
func PurchaseList(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := validators.ParseLimitOffset(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchases, err := svc.ListPurchases(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchases)
	}
}

// PurchaseDetail returns a single purchase with derived balances.
func PurchaseDetail(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetPurchase(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}
