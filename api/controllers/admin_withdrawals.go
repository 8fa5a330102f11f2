package controllers

import (
	"net/http"

	"github.com/rifazone/rifazone-backend/api/middleware"
	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	withdrawalsvc "github.com/rifazone/rifazone-backend/internal/withdrawals"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

// AdminListWithdrawals returns the withdrawal queue, filtered by status.
func AdminListWithdrawals(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}
		status, err := enums.ParseWithdrawalStatus(validators.QueryString(r, "status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
			return
		}
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByStatus(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ApproveWithdrawal confirms a pending request. The hold stays in place
// until the payout is processed.
func ApproveWithdrawal(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}
		requestID, err := pathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Approve(r.Context(), requestID, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

type rejectWithdrawalRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// RejectWithdrawal declines a pending request and releases its hold.
func RejectWithdrawal(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}
		requestID, err := pathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rejectWithdrawalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Reject(r.Context(), requestID, validators.SanitizeString(payload.Reason, 500), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// ProcessWithdrawal marks an approved payout as sent.
func ProcessWithdrawal(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}
		requestID, err := pathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Process(r.Context(), requestID, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}
