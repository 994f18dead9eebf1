// Package cart maintains one mutable cart per diner session. Lines are
// priced snapshots that get refreshed against the live catalog on every
// read, so a cart is never presented stale.
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vmelnikov/food_ordering/internal/customization"
	"github.com/vmelnikov/food_ordering/internal/models"
)

// TTL is the sliding expiry window for an abandoned cart, reset on every
// save.
const TTL = 24 * time.Hour

type Item struct {
	ID                  uuid.UUID                `json:"id"`
	MenuItemID          uuid.UUID                `json:"menuItemId"`
	MenuItemSlug        string                   `json:"menuItemSlug"`
	Name                string                   `json:"name"`
	ImageURL            string                   `json:"imageUrl,omitempty"`
	BasePrice           decimal.Decimal          `json:"basePrice"`
	Quantity            decimal.Decimal          `json:"quantity"`
	QuantityType        models.QuantityType      `json:"quantityType"`
	Unit                string                   `json:"unit,omitempty"`
	Customizations      []customization.Selected `json:"customizations"`
	SpecialInstructions string                   `json:"specialInstructions,omitempty"`
	ItemSubtotal        decimal.Decimal          `json:"itemSubtotal"`
	ItemTaxAmount       decimal.Decimal          `json:"itemTaxAmount"`
	ItemTotal           decimal.Decimal          `json:"itemTotal"`
	IsAvailable         bool                     `json:"isAvailable"`
	AvailableQuantity   *decimal.Decimal         `json:"availableQuantity,omitempty"`
	PrepTime            int                      `json:"prepTime,omitempty"`
}

type Cart struct {
	SessionID   string          `json:"sessionId"`
	Items       []Item          `json:"items"`
	ItemCount   decimal.Decimal `json:"itemCount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Total       decimal.Decimal `json:"total"`
	CanCheckout bool            `json:"canCheckout"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

func NewCart(sessionID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		SessionID: sessionID,
		Items:     []Item{},
		ItemCount: decimal.Zero,
		Subtotal:  decimal.Zero,
		TaxAmount: decimal.Zero,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
}

// recalculate re-derives the cart-level aggregates from line amounts.
func (c *Cart) recalculate() {
	count := decimal.Zero
	subtotal := decimal.Zero
	tax := decimal.Zero
	available := true
	for i := range c.Items {
		count = count.Add(c.Items[i].Quantity)
		subtotal = subtotal.Add(c.Items[i].ItemSubtotal)
		tax = tax.Add(c.Items[i].ItemTaxAmount)
		if !c.Items[i].IsAvailable {
			available = false
		}
	}
	c.ItemCount = count
	c.Subtotal = subtotal
	c.TaxAmount = tax
	c.Total = subtotal.Add(tax)
	c.CanCheckout = len(c.Items) > 0 && available
}
