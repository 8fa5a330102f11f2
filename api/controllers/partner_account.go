package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/api/middleware"
	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	partnersvc "github.com/rifazone/rifazone-backend/internal/partners"
	referralsvc "github.com/rifazone/rifazone-backend/internal/referrals"
	withdrawalsvc "github.com/rifazone/rifazone-backend/internal/withdrawals"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

// PartnerBalance returns the derived balance statement for the caller.
func PartnerBalance(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}
		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statement, err := svc.Balance(r.Context(), partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statement)
	}
}

// PartnerClickStats summarizes the caller's referral funnel.
func PartnerClickStats(svc referralsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}
		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type withdrawalRequestBody struct {
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method" validate:"required"`
	PaymentDetails json.RawMessage `json:"payment_details" validate:"required"`
}

// RequestWithdrawal places a payout hold against the caller's balance.
func RequestWithdrawal(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}
		partnerID, err := partnerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload withdrawalRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParseWithdrawalMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal method"))
			return
		}

		request, err := svc.Request(r.Context(), withdrawalsvc.RequestInput{
			PartnerID:      partnerID,
			Amount:         payload.Amount,
			Method:         method,
			PaymentDetails: payload.PaymentDetails,
		}, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// PartnerWithdrawals lists the caller's withdrawal requests, newest first.
func PartnerWithdrawals(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
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
		responses.WriteSuccess(w, page)
	}
}
