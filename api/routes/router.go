package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rifazone/rifazone-backend/api/controllers"
	webhookcontrollers "github.com/rifazone/rifazone-backend/api/controllers/webhooks"
	"github.com/rifazone/rifazone-backend/api/middleware"
	checkoutsvc "github.com/rifazone/rifazone-backend/internal/checkout"
	partnersvc "github.com/rifazone/rifazone-backend/internal/partners"
	prizesvc "github.com/rifazone/rifazone-backend/internal/prizes"
	rafflesvc "github.com/rifazone/rifazone-backend/internal/raffles"
	referralsvc "github.com/rifazone/rifazone-backend/internal/referrals"
	salesvc "github.com/rifazone/rifazone-backend/internal/sales"
	withdrawalsvc "github.com/rifazone/rifazone-backend/internal/withdrawals"
	"github.com/rifazone/rifazone-backend/pkg/config"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/logger"
	"github.com/rifazone/rifazone-backend/pkg/metrics"
	"github.com/rifazone/rifazone-backend/pkg/pix"
	"github.com/rifazone/rifazone-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	domainMetrics *metrics.DomainMetrics,
	raffleService rafflesvc.Service,
	partnerService partnersvc.Service,
	referralService referralsvc.Service,
	saleService salesvc.Service,
	checkoutService checkoutsvc.Service,
	withdrawalService withdrawalsvc.Service,
	prizeService prizesvc.Service,
	pixClient *pix.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, domainMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Use(middleware.RateLimit(redisClient, cfg.RateLimit, logg))

		r.Get("/raffles/{slug}", controllers.PublicRaffleBySlug(raffleService, logg))
		r.Get("/raffles/{slug}/availability", controllers.PublicRaffleAvailability(raffleService, logg))
		r.Post("/r/{slug}", controllers.ReferralClick(referralService, logg))
		r.With(middleware.Idempotency(redisClient, logg)).Post("/checkout", controllers.StartCheckout(checkoutService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/pix", webhookcontrollers.PixWebhook(checkoutService, pixClient, logg))
	})

	r.Route("/api/v1/partner", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.ActorRolePartner), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/field-sales", func(r chi.Router) {
			r.Post("/", controllers.RegisterFieldSale(saleService, logg))
			r.Post("/{saleID}/settle", controllers.SettleFieldSale(saleService, logg))
			r.Post("/{saleID}/cancel", controllers.CancelFieldSale(saleService, logg))
		})
		r.Get("/sales", controllers.PartnerSales(saleService, logg))
		r.Get("/balance", controllers.PartnerBalance(partnerService, logg))
		r.Get("/clicks", controllers.PartnerClickStats(referralService, logg))
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", controllers.RequestWithdrawal(withdrawalService, logg))
			r.Get("/", controllers.PartnerWithdrawals(withdrawalService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/raffles", func(r chi.Router) {
			r.Post("/", controllers.CreateRaffle(raffleService, logg))
			r.Get("/", controllers.ListRaffles(raffleService, logg))
			r.Patch("/{raffleID}", controllers.UpdateRaffle(raffleService, logg))
			r.Post("/{raffleID}/open", controllers.OpenRaffle(raffleService, logg))
			r.Post("/{raffleID}/close", controllers.CloseRaffle(raffleService, logg))
			r.Post("/{raffleID}/drawn", controllers.MarkRaffleDrawn(raffleService, logg))
			r.Get("/{raffleID}/prize-numbers", controllers.ListPrizeNumbers(prizeService, logg))
		})

		r.Route("/partners", func(r chi.Router) {
			r.Post("/", controllers.CreatePartner(partnerService, logg))
			r.Get("/", controllers.ListPartners(partnerService, logg))
			r.Patch("/{partnerID}", controllers.UpdatePartner(partnerService, logg))
			r.Post("/{partnerID}/activate", controllers.SetPartnerActive(partnerService, true, logg))
			r.Post("/{partnerID}/deactivate", controllers.SetPartnerActive(partnerService, false, logg))
			r.Get("/{partnerID}/balance", controllers.AdminPartnerBalance(partnerService, logg))
			r.Get("/{partnerID}/sales", controllers.AdminPartnerSales(saleService, logg))
		})

		r.Route("/field-sales", func(r chi.Router) {
			r.Post("/{saleID}/settle", controllers.AdminSettleFieldSale(saleService, logg))
			r.Post("/{saleID}/cancel", controllers.AdminCancelFieldSale(saleService, logg))
		})
		r.Get("/sales/{saleID}", controllers.AdminGetSale(saleService, logg))

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", controllers.AdminListWithdrawals(withdrawalService, logg))
			r.Post("/{requestID}/approve", controllers.ApproveWithdrawal(withdrawalService, logg))
			r.Post("/{requestID}/reject", controllers.RejectWithdrawal(withdrawalService, logg))
			r.Post("/{requestID}/process", controllers.ProcessWithdrawal(withdrawalService, logg))
		})

		r.Route("/prize-numbers", func(r chi.Router) {
			r.Post("/", controllers.CreatePrizeNumber(prizeService, logg))
			r.Patch("/{prizeID}", controllers.UpdatePrizeNumber(prizeService, logg))
			r.Delete("/{prizeID}", controllers.DeletePrizeNumber(prizeService, logg))
		})
	})

	return r
}
