package services

import (
	"slices"

	"github.com/shopspring/decimal"

	"honeypos/internal/domain"
)

// Cart is the in-progress list of sale lines. Unit prices are snapshotted
// from the product at the moment a line is added. Not safe for concurrent use.
type Cart struct {
	items []domain.SaleItem
}

// Add appends qty of p, or grows the existing line for p.
func (c *Cart) Add(p domain.Product, qty decimal.Decimal) error {
	if !p.IsActive {
		return invalid("item.product", "product %q is not active", p.ID)
	}
	if !qty.IsPositive() {
		return invalid("item.quantity", "quantity must be positive")
	}
	if i := c.index(p.ID); i >= 0 {
		return c.SetQuantity(p.ID, c.items[i].Quantity.Add(qty))
	}
	it := domain.SaleItem{
		ProductID:  p.ID,
		Quantity:   qty,
		UnitPrice:  p.BasePrice,
		TotalPrice: qty.Mul(p.BasePrice),
	}
	switch p.Type {
	case domain.ProductHoney:
		w := qty
		it.Weight = &w
	case domain.ProductJam:
		v := qty
		it.Volume = &v
	}
	c.items = append(c.items, it)
	return nil
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (c *Cart) SetQuantity(productID string, qty decimal.Decimal) error {
	i := c.index(productID)
	if i < 0 {
		return invalid("item.product", "product %q is not in the cart", productID)
	}
	if !qty.IsPositive() {
		c.items = slices.Delete(c.items, i, i+1)
		return nil
	}
	it := &c.items[i]
	it.Quantity = qty
	it.TotalPrice = qty.Mul(it.UnitPrice)
	if it.Weight != nil {
		w := qty
		it.Weight = &w
	}
	if it.Volume != nil {
		v := qty
		it.Volume = &v
	}
	return nil
}

func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []domain.SaleItem { return slices.Clone(c.items) }

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) Clear() { c.items = nil }

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.items, func(it domain.SaleItem) bool { return it.ProductID == productID })
}
