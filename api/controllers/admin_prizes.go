package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	prizesvc "github.com/rifazone/rifazone-backend/internal/prizes"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type createPrizeRequest struct {
	RaffleID    uuid.UUID       `json:"raffle_id" validate:"required"`
	Number      string          `json:"number" validate:"required,max=10"`
	Description string          `json:"description" validate:"required,max=200"`
	Value       decimal.Decimal `json:"value"`
}

type updatePrizeRequest struct {
	Description *string          `json:"description,omitempty" validate:"omitempty,max=200"`
	Value       *decimal.Decimal `json:"value,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

// CreatePrizeNumber designates a number as an instant prize.
func CreatePrizeNumber(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}

		var payload createPrizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prize, err := svc.Create(r.Context(), prizesvc.CreatePrizeInput{
			RaffleID:    payload.RaffleID,
			Number:      payload.Number,
			Description: payload.Description,
			Value:       payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, prize)
	}
}

// UpdatePrizeNumber edits a prize designation. Awarded prizes are immutable.
func UpdatePrizeNumber(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}
		prizeID, err := pathUUID(r, "prizeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePrizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := prizesvc.UpdatePrizeInput{
			Description: payload.Description,
			Value:       payload.Value,
		}
		if payload.Status != nil {
			status, parseErr := enums.ParsePrizeNumberStatus(*payload.Status)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid prize status"))
				return
			}
			input.Status = &status
		}

		prize, err := svc.Update(r.Context(), prizeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, prize)
	}
}

// DeletePrizeNumber removes an unawarded prize designation.
func DeletePrizeNumber(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}
		prizeID, err := pathUUID(r, "prizeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), prizeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ListPrizeNumbers returns all prize designations for a raffle.
func ListPrizeNumbers(svc prizesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prize service unavailable"))
			return
		}
		raffleID, err := pathUUID(r, "raffleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prizes, err := svc.ListByRaffle(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, prizes)
	}
}
