package domain

import "time"

// Valuation is one computed treasury valuation for a single bond's reserve.
type Valuation struct {
	ID           string    `json:"id,omitempty"`  // uuid, assigned by the store layer
	Bond         string    `json:"bond"`          // bond registry name
	Network      Network   `json:"network"`       // chain id
	Value        float64   `json:"value_usd"`     // treasury holdings of the reserve, in USD
	ReservePrice float64   `json:"reserve_price"` // reserve market price used for display
	BondPriceUSD float64   `json:"bond_price"`    // current bond quote from the depository, in USD
	CreatedAt    time.Time `json:"created_at"`
}
