package sales

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/pkg/db/models"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/metrics"
)

// Allocator draws random numbers from a raffle's pool and claims them by
// inserting ticket rows. The UNIQUE(raffle_id, number) index is the only
// arbiter: a duplicate insert fails and the allocator redraws, so two
// concurrent sales can never hold the same number.
type Allocator struct {
	retryLimit int
	draw       func(n int) int
	metrics    *metrics.DomainMetrics
}

// NewAllocator builds an allocator with the configured per-ticket redraw
// budget. A nil metrics is allowed.
func NewAllocator(retryLimit int, domainMetrics *metrics.DomainMetrics) *Allocator {
	if retryLimit <= 0 {
		retryLimit = 25
	}
	return &Allocator{
		retryLimit: retryLimit,
		draw:       rand.Intn,
		metrics:    domainMetrics,
	}
}

// Allocate claims quantity numbers for the sale. Both repositories must
// already be scoped to the sale transaction so a failure rolls every
// ticket back with the sale itself.
func (a *Allocator) Allocate(ctx context.Context, repo Repository, raffleRepo raffles.Repository, raffle *models.Raffle, saleID uuid.UUID, quantity int) ([]models.Ticket, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	sold, err := raffleRepo.SoldTicketCount(ctx, raffle.ID)
	if err != nil {
		return nil, err
	}
	poolSize := int64(raffle.PoolSize())
	if sold+int64(quantity) > poolSize {
		return nil, pkgerrors.New(pkgerrors.CodePoolExhausted,
			fmt.Sprintf("raffle has %d numbers remaining", poolSize-sold))
	}

	tickets := make([]models.Ticket, 0, quantity)
	for range quantity {
		ticket, err := a.allocateOne(ctx, repo, raffleRepo, raffle, saleID)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	a.metrics.AddTicketsAllocated(quantity)
	return tickets, nil
}

func (a *Allocator) allocateOne(ctx context.Context, repo Repository, raffleRepo raffles.Repository, raffle *models.Raffle, saleID uuid.UUID) (*models.Ticket, error) {
	for attempt := 0; attempt < a.retryLimit; attempt++ {
		number := fmt.Sprintf("%0*d", raffle.NumberDigits, a.draw(raffle.MaxNumber+1))
		ticket := &models.Ticket{
			ID:       uuid.New(),
			RaffleID: raffle.ID,
			Number:   number,
			SaleID:   saleID,
		}
		err := repo.InsertTicket(ctx, ticket)
		if err == nil {
			return ticket, nil
		}
		if !pkgerrors.IsUniqueViolation(err) {
			return nil, err
		}
		a.metrics.IncAllocationRedraw()
	}

	// The redraw budget ran out. Distinguish a genuinely full pool from
	// bad luck under contention so the caller can react accordingly.
	sold, err := raffleRepo.SoldTicketCount(ctx, raffle.ID)
	if err != nil {
		return nil, err
	}
	if sold >= int64(raffle.PoolSize()) {
		return nil, pkgerrors.New(pkgerrors.CodePoolExhausted, "raffle number pool is exhausted")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a free number, please retry")
}
