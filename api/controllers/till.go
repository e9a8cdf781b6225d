package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	tillsvc "github.com/angelmondragon/tillpoint-backend/internal/till"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
)

type tillOpenRequest struct {
	CashHandedOver decimal.Decimal `json:"cash_handed_over"`
	CardHandedOver decimal.Decimal `json:"card_handed_over"`
}

type tillCloseRequest struct {
	CashCounted decimal.Decimal `json:"cash_counted"`
	CardCounted decimal.Decimal `json:"card_counted"`
	Shortage    decimal.Decimal `json:"shortage"`
	Surplus     decimal.Decimal `json:"surplus"`
}

// TillOpen starts a till session for the acting user.
func TillOpen(svc tillsvc.Service, m *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "till service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload tillOpenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		till, err := svc.Open(r.Context(), userID, tillsvc.OpenInput{
			CashHandedOver: payload.CashHandedOver,
			CardHandedOver: payload.CardHandedOver,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m.IncTillOpened()
		responses.WriteSuccessStatus(w, http.StatusCreated, till)
	}
}

// TillClose ends the user's open till session with counted figures.
func TillClose(svc tillsvc.Service, m *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload tillCloseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Close(r.Context(), userID, tillsvc.CloseInput{
			CashCounted: payload.CashCounted,
			CardCounted: payload.CardCounted,
			Shortage:    payload.Shortage,
			Surplus:     payload.Surplus,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m.IncTillClosed()
		responses.WriteSuccess(w, summary)
	}
}

// TillCurrent returns the user's open till with its scoped payments.
func TillCurrent(svc tillsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Current(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// TillHistory lists the user's past till sessions.
func TillHistory(svc tillsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, offset, err := validators.ParseLimitOffset(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tills, err := svc.History(r.Context(), userID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tills)
	}
}
