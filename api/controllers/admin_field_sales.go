package controllers

import (
	"net/http"

	"github.com/rifazone/rifazone-backend/api/middleware"
	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	salesvc "github.com/rifazone/rifazone-backend/internal/sales"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

// AdminGetSale returns any sale with its tickets.
func AdminGetSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		sale, err := svc.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSaleResponse(sale))
	}
}

// AdminSettleFieldSale settles any partner's pending field sale.
func AdminSettleFieldSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// AdminCancelFieldSale voids any partner's pending field sale.
func AdminCancelFieldSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// AdminPartnerSales lists any partner's sales.
func AdminPartnerSales(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}
		partnerID, err := pathUUID(r, "partnerID")
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
