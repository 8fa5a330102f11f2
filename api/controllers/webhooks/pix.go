package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rifazone/rifazone-backend/api/responses"
	checkoutsvc "github.com/rifazone/rifazone-backend/internal/checkout"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, notification checkoutsvc.PaymentNotification) (*models.Sale, error)
}

type pixVerifier interface {
	VerifySignature(body []byte, header string) bool
}

type pixNotification struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// PixWebhook handles payment status notifications from the PSP. The sale
// transition is idempotent, so PSP retries are safe.
func PixWebhook(svc paymentConfirmer, verifier pixVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pix client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("X-Pix-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "pix signature missing"))
			return
		}
		if !verifier.VerifySignature(payload, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid pix signature"))
			return
		}

		var notification pixNotification
		if err := json.Unmarshal(payload, &notification); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}
		if strings.TrimSpace(notification.SessionID) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required"))
			return
		}

		sale, err := svc.ConfirmPayment(ctx, checkoutsvc.PaymentNotification{
			SessionID: notification.SessionID,
			Status:    notification.Status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"sale_id": sale.ID,
			"status":  string(sale.Status),
		})
	}
}
