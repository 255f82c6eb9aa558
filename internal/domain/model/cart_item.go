package model

import "github.com/shopspring/decimal"

// CartLineItem pairs a product copy with a positive quantity.
type CartLineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (it CartLineItem) LineTotal() decimal.Decimal {
	return it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// CartItems is the snapshot shape of a cart: at most one line per product id.
type CartItems []CartLineItem

// Total is recomputed from the lines on every call.
func (c CartItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c CartItems) ItemCount() int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}

func (c CartItems) IndexOf(productID string) int {
	for i, it := range c {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}
