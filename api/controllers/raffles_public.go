package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/api/responses"
	rafflesvc "github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type raffleResponse struct {
	RaffleID       uuid.UUID       `json:"raffle_id"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPrice  decimal.Decimal `json:"discount_price"`
	DiscountMinQty int             `json:"discount_min_qty"`
	NumberDigits   int             `json:"number_digits"`
	MaxNumber      int             `json:"max_number"`
	MaxPerSale     int             `json:"max_per_sale"`
	Status         string          `json:"status"`
	DrawnAt        *time.Time      `json:"drawn_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newRaffleResponse(raffle *models.Raffle) raffleResponse {
	if raffle == nil {
		return raffleResponse{}
	}
	return raffleResponse{
		RaffleID:       raffle.ID,
		Title:          raffle.Title,
		Slug:           raffle.Slug,
		UnitPrice:      raffle.UnitPrice,
		DiscountPrice:  raffle.DiscountPrice,
		DiscountMinQty: raffle.DiscountMinQty,
		NumberDigits:   raffle.NumberDigits,
		MaxNumber:      raffle.MaxNumber,
		MaxPerSale:     raffle.MaxPerSale,
		Status:         string(raffle.Status),
		DrawnAt:        raffle.DrawnAt,
		CreatedAt:      raffle.CreatedAt,
	}
}

// PublicRaffleBySlug exposes the raffle landing page data.
func PublicRaffleBySlug(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}
		raffle, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRaffleResponse(raffle))
	}
}

// PublicRaffleAvailability reports remaining pool capacity for a raffle.
func PublicRaffleAvailability(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}
		raffle, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		availability, err := svc.Availability(r.Context(), raffle.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}
