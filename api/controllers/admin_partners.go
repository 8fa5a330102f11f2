package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/api/validators"
	partnersvc "github.com/rifazone/rifazone-backend/internal/partners"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type partnerResponse struct {
	PartnerID      uuid.UUID       `json:"partner_id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	PixKey         string          `json:"pix_key,omitempty"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newPartnerResponse(partner *models.Partner) partnerResponse {
	if partner == nil {
		return partnerResponse{}
	}
	return partnerResponse{
		PartnerID:      partner.ID,
		Name:           partner.Name,
		Slug:           partner.Slug,
		Email:          partner.Email,
		Phone:          partner.Phone,
		PixKey:         partner.PixKey,
		CommissionRate: partner.CommissionRate,
		IsActive:       partner.IsActive,
		CreatedAt:      partner.CreatedAt,
	}
}

type createPartnerRequest struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Slug           string          `json:"slug" validate:"required,max=64"`
	Email          string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string          `json:"phone,omitempty" validate:"max=32"`
	PixKey         string          `json:"pix_key,omitempty" validate:"max=140"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type updatePartnerRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Email          *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	PixKey         *string          `json:"pix_key,omitempty" validate:"omitempty,max=140"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
}

// CreatePartner registers a new affiliate.
func CreatePartner(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}

		var payload createPartnerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partner, err := svc.Create(r.Context(), partnersvc.CreatePartnerInput{
			Name:           payload.Name,
			Slug:           payload.Slug,
			Email:          payload.Email,
			Phone:          payload.Phone,
			PixKey:         payload.PixKey,
			CommissionRate: payload.CommissionRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPartnerResponse(partner))
	}
}

// UpdatePartner edits the mutable partner fields.
func UpdatePartner(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}
		partnerID, err := pathUUID(r, "partnerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePartnerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partner, err := svc.Update(r.Context(), partnerID, partnersvc.UpdatePartnerInput{
			Name:           payload.Name,
			Email:          payload.Email,
			Phone:          payload.Phone,
			PixKey:         payload.PixKey,
			CommissionRate: payload.CommissionRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPartnerResponse(partner))
	}
}

// ListPartners returns partners for the back office.
func ListPartners(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partners, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]partnerResponse, 0, len(partners))
		for i := range partners {
			items = append(items, newPartnerResponse(&partners[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// SetPartnerActive activates or deactivates a partner. Deactivation stops
// new commissions but never touches historical sales.
func SetPartnerActive(svc partnersvc.Service, active bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}
		partnerID, err := pathUUID(r, "partnerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), partnerID, active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partner, err := svc.Get(r.Context(), partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPartnerResponse(partner))
	}
}

// AdminPartnerBalance returns the derived balance for any partner.
func AdminPartnerBalance(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner service unavailable"))
			return
		}
		partnerID, err := pathUUID(r, "partnerID")
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
