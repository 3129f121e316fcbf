package trade

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
)

const (
	// GreedAttribute is the d20 attribute holding a merchant's markup percent
	GreedAttribute = "greed"

	maxGreed = 90
)

var ErrNotForSale = errors.New("merchant does not trade that item")

// MerchantSpec is the serializable definition of an NPC merchant
type MerchantSpec struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Greed      int               `json:"greed"`
	Gold       int               `json:"gold"`
	Capacity   int               `json:"capacity"`
	Stock      []inventory.Stack `json:"stock,omitempty"`
	Attributes map[string]int    `json:"attributes,omitempty"`
}

// Merchant is an NPC that buys and sells from its own inventory
type Merchant struct {
	Spec      *MerchantSpec
	Actor     *d20.Actor // Built at runtime from MerchantSpec
	Inventory *inventory.Inventory
	logger    *slog.Logger
}

// NewMerchant builds a merchant and stocks its inventory from spec
func NewMerchant(spec *MerchantSpec, catalog *inventory.Catalog, logger *slog.Logger) (*Merchant, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	attrs := make(map[string]int, len(spec.Attributes)+1)
	maps.Copy(attrs, spec.Attributes)
	attrs[GreedAttribute] = clampGreed(spec.Greed)

	actor, err := d20.NewActor(spec.ID).
		WithHP(1).
		WithAC(10).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	inv := inventory.New(catalog, spec.Capacity).WithGold(spec.Gold)
	for _, s := range spec.Stock {
		if err := inv.Add(s.ItemID, s.Quantity); err != nil {
			return nil, fmt.Errorf("failed to stock %s: %w", s.ItemID, err)
		}
	}

	return &Merchant{
		Spec:      spec,
		Actor:     actor,
		Inventory: inv,
		logger:    logger.With("merchant", spec.ID),
	}, nil
}

// Greed returns the markup percent, clamped to [0, 90]
func (m *Merchant) Greed() int {
	g, ok := m.Actor.Attribute(GreedAttribute)
	if !ok {
		return 0
	}
	return clampGreed(g)
}

func clampGreed(g int) int {
	return min(max(g, 0), maxGreed)
}

// BuyPrice is what a customer pays the merchant for one item
func (m *Merchant) BuyPrice(it inventory.Item) int {
	return (it.Price*(100+m.Greed()) + 99) / 100
}

// SellPrice is what the merchant pays a customer for one item
func (m *Merchant) SellPrice(it inventory.Item) int {
	return it.Price * (100 - m.Greed()) / 200
}

// Buy moves qty of an item from the merchant to the customer for gold.
// Returns the total paid. Nothing changes on error.
func (m *Merchant) Buy(customer *inventory.Inventory, id string, qty int) (int, error) {
	it, err := m.Inventory.Catalog().Lookup(id)
	if err != nil {
		return 0, err
	}
	if m.Inventory.Count(id) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotForSale, id)
	}
	total := m.BuyPrice(it) * qty
	if customer.Gold() < total {
		return 0, fmt.Errorf("%w: need %d, have %d", inventory.ErrNotEnoughGold, total, customer.Gold())
	}
	if err := inventory.Transfer(m.Inventory, customer, id, qty); err != nil {
		return 0, err
	}
	if err := customer.SpendGold(total); err != nil {
		return 0, err
	}
	m.Inventory.AddGold(total)
	m.logger.Debug("Sold to customer", "item", id, "quantity", qty, "total", total)
	return total, nil
}

// Sell moves qty of an item from the customer to the merchant for gold.
// Returns the total received. Nothing changes on error.
func (m *Merchant) Sell(customer *inventory.Inventory, id string, qty int) (int, error) {
	it, err := customer.Catalog().Lookup(id)
	if err != nil {
		return 0, err
	}
	total := m.SellPrice(it) * qty
	if m.Inventory.Gold() < total {
		return 0, fmt.Errorf("%w: merchant needs %d, has %d", inventory.ErrNotEnoughGold, total, m.Inventory.Gold())
	}
	if err := inventory.Transfer(customer, m.Inventory, id, qty); err != nil {
		return 0, err
	}
	if err := m.Inventory.SpendGold(total); err != nil {
		return 0, err
	}
	customer.AddGold(total)
	m.logger.Debug("Bought from customer", "item", id, "quantity", qty, "total", total)
	return total, nil
}
