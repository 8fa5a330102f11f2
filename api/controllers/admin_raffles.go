package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	rafflesvc "github.com/rifazone/rifazone-backend/internal/raffles"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type createRaffleRequest struct {
	Title          string          `json:"title" validate:"required,max=200"`
	Slug           string          `json:"slug" validate:"required,max=64"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPrice  decimal.Decimal `json:"discount_price"`
	DiscountMinQty int             `json:"discount_min_qty" validate:"min=0"`
	NumberDigits   int             `json:"number_digits" validate:"min=0,max=10"`
	MaxNumber      int             `json:"max_number" validate:"required,min=1"`
	MaxPerSale     int             `json:"max_per_sale" validate:"min=0"`
}

type updateRaffleRequest struct {
	Title          *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	DiscountMinQty *int             `json:"discount_min_qty,omitempty" validate:"omitempty,min=0"`
	MaxPerSale     *int             `json:"max_per_sale,omitempty" validate:"omitempty,min=1"`
}

// CreateRaffle configures a new raffle in draft state.
func CreateRaffle(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}

		var payload createRaffleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raffle, err := svc.Create(r.Context(), rafflesvc.CreateRaffleInput{
			Title:          payload.Title,
			Slug:           payload.Slug,
			UnitPrice:      payload.UnitPrice,
			DiscountPrice:  payload.DiscountPrice,
			DiscountMinQty: payload.DiscountMinQty,
			NumberDigits:   payload.NumberDigits,
			MaxNumber:      payload.MaxNumber,
			MaxPerSale:     payload.MaxPerSale,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRaffleResponse(raffle))
	}
}

// UpdateRaffle edits the mutable raffle fields.
func UpdateRaffle(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}
		raffleID, err := pathUUID(r, "raffleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRaffleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raffle, err := svc.Update(r.Context(), raffleID, rafflesvc.UpdateRaffleInput{
			Title:          payload.Title,
			UnitPrice:      payload.UnitPrice,
			DiscountPrice:  payload.DiscountPrice,
			DiscountMinQty: payload.DiscountMinQty,
			MaxPerSale:     payload.MaxPerSale,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRaffleResponse(raffle))
	}
}

// ListRaffles returns raffles for the back office, newest first.
func ListRaffles(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raffles, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]raffleResponse, 0, len(raffles))
		for i := range raffles {
			items = append(items, newRaffleResponse(&raffles[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// raffleTransition builds the open/close/drawn handlers, which share a shape.
func raffleTransition(svc rafflesvc.Service, logg *logger.Logger, transition func(svc rafflesvc.Service, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}
		if err := transition(svc, r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		raffleID, err := pathUUID(r, "raffleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		raffle, err := svc.Get(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRaffleResponse(raffle))
	}
}

// OpenRaffle moves a draft or closed raffle into selling state.
func OpenRaffle(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return raffleTransition(svc, logg, func(svc rafflesvc.Service, r *http.Request) error {
		raffleID, err := pathUUID(r, "raffleID")
		if err != nil {
			return err
		}
		return svc.Open(r.Context(), raffleID)
	})
}

// CloseRaffle stops sales for a raffle.
func CloseRaffle(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return raffleTransition(svc, logg, func(svc rafflesvc.Service, r *http.Request) error {
		raffleID, err := pathUUID(r, "raffleID")
		if err != nil {
			return err
		}
		return svc.Close(r.Context(), raffleID)
	})
}

// MarkRaffleDrawn records that the draw happened.
func MarkRaffleDrawn(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return raffleTransition(svc, logg, func(svc rafflesvc.Service, r *http.Request) error {
		raffleID, err := pathUUID(r, "raffleID")
		if err != nil {
			return err
		}
		return svc.MarkDrawn(r.Context(), raffleID)
	})
}
