package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/api/middleware"
	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	salesvc "github.com/rifazone/rifazone-backend/internal/sales"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

type fieldSaleRequest struct {
	RaffleID  uuid.UUID `json:"raffle_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Name      string    `json:"name" validate:"required,max=120"`
	Phone     string    `json:"phone" validate:"required,max=32"`
	City      string    `json:"city,omitempty" validate:"max=120"`
	AgentName string    `json:"agent_name,omitempty" validate:"max=120"`
}

type settleRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Notes      string          `json:"notes,omitempty" validate:"max=500"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func partnerIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.PartnerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "partner account required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "partner account required")
	}
	return id, nil
}

// RegisterFieldSale records a door-to-door sale for the calling partner.
// Tickets are allocated immediately; the cash settles later.
func RegisterFieldSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}
		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload fieldSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.RegisterFieldSale(r.Context(), salesvc.FieldSaleInput{
			RaffleID:  payload.RaffleID,
			PartnerID: partnerID,
			Quantity:  payload.Quantity,
			Customer: types.CustomerSnapshot{
				Name:  validators.SanitizeString(payload.Name, 120),
				Phone: validators.SanitizeString(payload.Phone, 32),
				City:  validators.SanitizeString(payload.City, 120),
			},
			AgentName: validators.SanitizeString(payload.AgentName, 120),
		}, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSaleResponse(sale))
	}
}

// SettleFieldSale records the cash actually collected for a pending
// field sale. Ownership is enforced by the service from the actor.
func SettleFieldSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}
		saleID, err := pathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload settleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.SettleFieldSale(r.Context(), saleID, salesvc.SettleInput{
			AmountPaid: payload.AmountPaid,
			Notes:      validators.SanitizeString(payload.Notes, 500),
		}, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSaleResponse(sale))
	}
}

// CancelFieldSale voids a pending field sale and releases its numbers.
func CancelFieldSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}
		saleID, err := pathUUID(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.CancelFieldSale(r.Context(), saleID, validators.SanitizeString(payload.Reason, 500), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSaleResponse(sale))
	}
}

// PartnerSales lists the calling partner's sales, newest first.
func PartnerSales(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}
		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByPartner(r.Context(), partnerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSalePage(page))
	}
}
