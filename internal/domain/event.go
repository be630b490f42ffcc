package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents one theater show instance. Its tickets are generated in
// bulk at creation time and cascade-deleted with it.
type Event struct {
	ID        string
	Name      string
	Venue     string
	StartsAt  time.Time
	Capacity  int
	BasePrice decimal.Decimal
	CreatedAt time.Time
}
