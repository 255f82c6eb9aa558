package checkout

import "github.com/shopspring/decimal"

var (
	DefaultFreeDeliveryThreshold = decimal.NewFromInt(500)
	DefaultDeliveryFee           = decimal.NewFromInt(50)
)

// Pricing holds the delivery fee policy.
type Pricing struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeDeliveryThreshold: DefaultFreeDeliveryThreshold,
		DeliveryFee:           DefaultDeliveryFee,
	}
}

// Fee is zero once the subtotal reaches the threshold.
func (p Pricing) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return p.DeliveryFee
}

// Summary is the derived money view of a checkout.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	FinalTotal  decimal.Decimal `json:"final_total"`
	ItemCount   int             `json:"item_count"`
}

func (p Pricing) Summarize(subtotal decimal.Decimal, itemCount int) Summary {
	fee := p.Fee(subtotal)
	return Summary{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		FinalTotal:  subtotal.Add(fee),
		ItemCount:   itemCount,
	}
}
