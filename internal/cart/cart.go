// Package cart is the client-held shopping cart. Lines are keyed by
// (product, size); totals are computed on demand.
package cart

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// LineItem is one product/size pair in the cart.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice float64
	Image     string
	Quantity  int
	Discount  *float64
	Size      string
}

// Key identifies a line.
type Key struct {
	ProductID string
	Size      string
}

func (l LineItem) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size}
}

// EffectivePrice applies the percentage discount when one is set.
func (l LineItem) EffectivePrice() float64 {
	if l.Discount == nil {
		return l.UnitPrice
	}
	return l.UnitPrice * (1 - *l.Discount/100)
}

func (l LineItem) Subtotal() float64 {
	return l.EffectivePrice() * float64(l.Quantity)
}

type State int

const (
	Empty State = iota
	Populated
)

func (s State) String() string {
	if s == Populated {
		return "populated"
	}
	return "empty"
}

// Cart is safe for concurrent use.
type Cart struct {
	mu     sync.Mutex
	lines  []LineItem
	open   bool
	onOpen func()
}

type Option func(*Cart)

// WithOpenListener registers fn to run whenever an add opens the cart view.
func WithOpenListener(fn func()) Option {
	return func(c *Cart) { c.onOpen = fn }
}

func New(opts ...Option) *Cart {
	c := &Cart{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cart) index(k Key) int {
	for i, l := range c.lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

// Add merges the item into an existing line with the same key or appends
// it, then opens the cart view.
func (c *Cart) Add(item LineItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	if i := c.index(item.Key()); i >= 0 {
		c.lines[i].Quantity += item.Quantity
	} else {
		c.lines = append(c.lines, item)
	}
	c.open = true
	onOpen := c.onOpen
	c.mu.Unlock()

	if onOpen != nil {
		onOpen()
	}
	return nil
}

// SetQuantity replaces a line's quantity. Quantities below 1 and unknown
// keys are ignored.
func (c *Cart) SetQuantity(productID, size string, quantity int) {
	if quantity < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(Key{productID, size}); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

func (c *Cart) Remove(productID, size string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(Key{productID, size}); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LineItem(nil), c.lines...)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Count is the total number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

func (c *Cart) State() State {
	if c.IsEmpty() {
		return Empty
	}
	return Populated
}

// Total is the unrounded sum of line subtotals.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// FormattedTotal renders Total with two decimals.
func (c *Cart) FormattedTotal() string {
	return fmt.Sprintf("%.2f", c.Total())
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Toggle flips the cart view open or closed.
func (c *Cart) Toggle() {
	c.mu.Lock()
	c.open = !c.open
	c.mu.Unlock()
}

func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
