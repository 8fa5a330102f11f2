package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rifazone/rifazone-backend/api/responses"
	referralsvc "github.com/rifazone/rifazone-backend/internal/referrals"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

// ReferralClick records a referral visit. It always responds 204 so the
// endpoint leaks nothing about which slugs exist or are active.
func ReferralClick(svc referralsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteNoContent(w)
			return
		}
		recorded, err := svc.RecordClick(r.Context(), referralsvc.RecordClickInput{
			PartnerSlug: chi.URLParam(r, "slug"),
			Referrer:    r.Referer(),
			UserAgent:   r.UserAgent(),
		})
		if err != nil {
			logg.Error(r.Context(), "record referral click", err)
		} else if !recorded {
			logg.Info(logg.WithFields(r.Context(), map[string]any{
				"partner_slug": chi.URLParam(r, "slug"),
			}), "referral click ignored")
		}
		responses.WriteNoContent(w)
	}
}
