// Package cart is the client-side shopping cart: an ordered list of snapshot lines with quantities.
package cart

import "github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"

// Line copies the food fields at the moment the dish was added. Later catalog price changes do
// not reach lines already in the cart.
type Line struct {
	ID       string           `json:"_id"`
	Name     string           `json:"name"`
	Price    int64            `json:"price"`
	Image    string           `json:"image"`
	Category catalog.Category `json:"category"`
	Quantity int              `json:"quantity"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Cart keeps lines in insertion order. Line ids are unique and quantities are at least 1.
// A Cart has a single writer and is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add bumps the quantity of an existing line or appends a new line with quantity 1.
func (c *Cart) Add(item catalog.FoodItem) {
	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Image:    item.Image,
		Category: item.Category,
		Quantity: 1,
	})
}

// AddLine merges a previously snapshotted line, such as one copied from a past order. An existing
// line gains the quantity and keeps its own price; a quantity below 1 is ignored.
func (c *Cart) AddLine(l Line) {
	if l.Quantity < 1 {
		return
	}
	if i := c.index(l.ID); i >= 0 {
		c.lines[i].Quantity += l.Quantity
		return
	}
	c.lines = append(c.lines, l)
}

// Remove drops the line with id; unknown ids are ignored.
func (c *Cart) Remove(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less removes the line and an
// unknown id is ignored.
func (c *Cart) SetQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	if i := c.index(id); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// TotalItems sums the quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice sums price times quantity using each line's own snapshot price.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Cart) index(id string) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// restore rebuilds a cart from stored lines, merging repeated ids and dropping empty lines.
func restore(lines []Line) *Cart {
	c := New()
	for _, l := range lines {
		c.AddLine(l)
	}
	return c
}
