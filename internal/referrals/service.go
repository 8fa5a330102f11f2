package referrals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rifazone/rifazone-backend/internal/partners"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/enums"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records referral traffic and attributes conversions.
type Service interface {
	RecordClick(ctx context.Context, input RecordClickInput) (bool, error)
	Stats(ctx context.Context, partnerID uuid.UUID) (*ClickStats, error)
	// AttributeConversion runs inside the sale transaction and claims the
	// partner's most recent unconverted click recorded before the sale, if any.
	AttributeConversion(ctx context.Context, tx *gorm.DB, partnerID, saleID uuid.UUID, saleCreatedAt time.Time) error
}

type service struct {
	repo     Repository
	partners partners.Repository
	outbox   outboxPublisher
}

// RecordClickInput captures an incoming referral visit.
type RecordClickInput struct {
	PartnerSlug string
	Referrer    string
	UserAgent   string
}

// ClickStats summarizes a partner's referral funnel.
type ClickStats struct {
	PartnerID uuid.UUID `json:"partner_id"`
	Clicks    int64     `json:"clicks"`
	Converted int64     `json:"converted"`
}

// ReferralConversionEvent is emitted when a click is claimed by a sale.
type ReferralConversionEvent struct {
	ClickID   uuid.UUID `json:"click_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	SaleID    uuid.UUID `json:"sale_id"`
}

// NewService wires the referral service with the required dependencies.
func NewService(repo Repository, partnerRepo partners.Repository, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("referral repository required")
	}
	if partnerRepo == nil {
		return nil, fmt.Errorf("partner repository required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, partners: partnerRepo, outbox: outboxSvc}, nil
}

// RecordClick stores the visit when the slug maps to an active partner.
// Unknown or inactive slugs return false without error so the public
// endpoint never leaks which codes exist.
func (s *service) RecordClick(ctx context.Context, input RecordClickInput) (bool, error) {
	slug := strings.ToLower(strings.TrimSpace(input.PartnerSlug))
	if slug == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "referral code is required")
	}

	partner, err := s.partners.FindBySlug(ctx, slug)
	if err != nil {
		return false, err
	}
	if partner == nil || !partner.IsActive {
		return false, nil
	}

	click := &models.ReferralClick{
		ID:        uuid.New(),
		PartnerID: partner.ID,
		Referrer:  strings.TrimSpace(input.Referrer),
		UserAgent: strings.TrimSpace(input.UserAgent),
	}
	if err := s.repo.Create(ctx, click); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) Stats(ctx context.Context, partnerID uuid.UUID) (*ClickStats, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id is required")
	}
	total, converted, err := s.repo.CountByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return &ClickStats{PartnerID: partnerID, Clicks: total, Converted: converted}, nil
}

func (s *service) AttributeConversion(ctx context.Context, tx *gorm.DB, partnerID, saleID uuid.UUID, saleCreatedAt time.Time) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	repo := s.repo.WithTx(tx)

	click, err := repo.FindLatestUnconverted(ctx, partnerID, saleCreatedAt)
	if err != nil {
		return err
	}
	if click == nil {
		// Direct sales without a tracked click are fine.
		return nil
	}

	claimed, err := repo.MarkConverted(ctx, click.ID, saleID, saleCreatedAt)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReferralConversionRecorded,
		AggregateType: enums.AggregatePartner,
		AggregateID:   partnerID,
		Data: ReferralConversionEvent{
			ClickID:   click.ID,
			PartnerID: partnerID,
			SaleID:    saleID,
		},
	})
}
