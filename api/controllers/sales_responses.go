package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/pkg/db/models"
	"github.com/rifazone/rifazone-backend/pkg/pagination"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

type saleResponse struct {
	SaleID           uuid.UUID              `json:"sale_id"`
	RaffleID         uuid.UUID              `json:"raffle_id"`
	PartnerID        *uuid.UUID             `json:"partner_id,omitempty"`
	Channel          string                 `json:"channel"`
	Customer         types.CustomerSnapshot `json:"customer"`
	Quantity         int                    `json:"quantity"`
	Amount           decimal.Decimal        `json:"amount"`
	ExpectedAmount   decimal.Decimal        `json:"expected_amount"`
	AmountPaid       *decimal.Decimal       `json:"amount_paid,omitempty"`
	Commission       decimal.Decimal        `json:"commission"`
	CommissionReview bool                   `json:"commission_review"`
	Status           string                 `json:"status"`
	AgentName        string                 `json:"agent_name,omitempty"`
	SettlementNotes  *string                `json:"settlement_notes,omitempty"`
	CancelReason     *string                `json:"cancel_reason,omitempty"`
	Numbers          []string               `json:"numbers"`
	SettledAt        *time.Time             `json:"settled_at,omitempty"`
	CancelledAt      *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func newSaleResponse(sale *models.Sale) saleResponse {
	if sale == nil {
		return saleResponse{}
	}
	return saleResponse{
		SaleID:           sale.ID,
		RaffleID:         sale.RaffleID,
		PartnerID:        sale.PartnerID,
		Channel:          string(sale.Channel),
		Customer:         sale.Customer,
		Quantity:         sale.Quantity,
		Amount:           sale.Amount,
		ExpectedAmount:   sale.ExpectedAmount,
		AmountPaid:       sale.AmountPaid,
		Commission:       sale.Commission,
		CommissionReview: sale.CommissionReview,
		Status:           string(sale.Status),
		AgentName:        sale.AgentName,
		SettlementNotes:  sale.SettlementNotes,
		CancelReason:     sale.CancelReason,
		Numbers:          sale.TicketNumbers(),
		SettledAt:        sale.SettledAt,
		CancelledAt:      sale.CancelledAt,
		CreatedAt:        sale.CreatedAt,
	}
}

type salePage struct {
	Items      []saleResponse `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

func newSalePage(page *pagination.Page[models.Sale]) salePage {
	if page == nil {
		return salePage{Items: []saleResponse{}}
	}
	items := make([]saleResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, newSaleResponse(&page.Items[i]))
	}
	return salePage{Items: items, NextCursor: page.NextCursor}
}
