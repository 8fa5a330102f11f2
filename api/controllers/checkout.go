package controllers

import (
	"net/http"

	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	checkoutsvc "github.com/rifazone/rifazone-backend/internal/checkout"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

type checkoutRequest struct {
	RaffleSlug  string `json:"raffle_slug" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	Name        string `json:"name" validate:"required,max=120"`
	Phone       string `json:"phone" validate:"required,max=32"`
	City        string `json:"city,omitempty" validate:"max=120"`
	PartnerSlug string `json:"partner_slug,omitempty" validate:"max=64"`
}

// StartCheckout quotes the price server-side and opens a PIX charge for it.
func StartCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.StartCheckout(r.Context(), checkoutsvc.CheckoutInput{
			RaffleSlug: payload.RaffleSlug,
			Quantity:   payload.Quantity,
			Customer: types.CustomerSnapshot{
				Name:  validators.SanitizeString(payload.Name, 120),
				Phone: validators.SanitizeString(payload.Phone, 32),
				City:  validators.SanitizeString(payload.City, 120),
			},
			PartnerSlug: payload.PartnerSlug,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
