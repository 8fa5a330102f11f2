package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket binds one number of a raffle's pool to a sale. The unique index
// on (raffle_id, number) is the allocation guard: two sales can never hold
// the same number because only one insert wins. Cancelling a sale deletes
// its ticket rows, releasing the numbers back to the pool.
type Ticket struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RaffleID  uuid.UUID `gorm:"column:raffle_id;type:uuid;not null;uniqueIndex:idx_tickets_raffle_number"`
	Number    string    `gorm:"column:number;not null;uniqueIndex:idx_tickets_raffle_number"`
	SaleID    uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
