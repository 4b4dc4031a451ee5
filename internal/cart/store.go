package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. ID is the product id; a cart never
// holds two lines with the same ID.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price x quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Snapshot is a read-only copy of cart state. Total is always derived from Items.
type Snapshot struct {
	Items  []LineItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
	IsOpen bool            `json:"is_open"`
}

// Count is the number of units across all lines.
func (s Snapshot) Count() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// IsEmpty reports whether there is nothing payable in the cart.
func (s Snapshot) IsEmpty() bool {
	return !s.Total.IsPositive()
}

// Store owns the cart for one browsing session. Every transition recomputes
// the total under the same lock that mutates the items.
type Store struct {
	mu     sync.Mutex
	items  []LineItem
	total  decimal.Decimal
	isOpen bool
}

func NewStore() *Store {
	return &Store{items: []LineItem{}}
}

// Restore rebuilds a Store from persisted state. Lines are re-merged by ID and
// the stored total is ignored in favour of a fresh sum.
func Restore(s Snapshot) *Store {
	store := NewStore()
	for _, item := range s.Items {
		store.addLocked(item)
	}
	store.isOpen = s.IsOpen
	store.recalculateLocked()
	return store
}

// AddItem merges candidate into the cart. An existing line keeps its name,
// price and image and only has its quantity increased.
func (s *Store) AddItem(candidate LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(candidate)
	s.recalculateLocked()
}

// Quantity returns the units held on line id, zero when absent.
func (s *Store) Quantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item.Quantity
		}
	}
	return 0
}

// UpdateQuantity sets the quantity of line id, clamped at zero. Unknown ids are ignored.
func (s *Store) UpdateQuantity(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = max(0, quantity)
			s.recalculateLocked()
			return
		}
	}
}

// RemoveItem deletes line id. Unknown ids are ignored.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.recalculateLocked()
			return
		}
	}
}

// Clear empties the cart. The overlay flag is left alone.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []LineItem{}
	s.total = decimal.Zero
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = open
}

// Read returns a copy of the current state.
func (s *Store) Read() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{Items: items, Total: s.total, IsOpen: s.isOpen}
}

func (s *Store) addLocked(candidate LineItem) {
	for i := range s.items {
		if s.items[i].ID == candidate.ID {
			s.items[i].Quantity = max(0, s.items[i].Quantity+candidate.Quantity)
			return
		}
	}
	candidate.Quantity = max(0, candidate.Quantity)
	s.items = append(s.items, candidate)
}

func (s *Store) recalculateLocked() {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	s.total = total
}
