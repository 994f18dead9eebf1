package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vmelnikov/food_ordering/internal/customization"
	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/logging"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/pricing"
	"github.com/vmelnikov/food_ordering/internal/session"
)

// Catalog is the live menu reader: current price, availability and
// customization schema at call time.
type Catalog interface {
	FindItem(ctx context.Context, idOrSlug string) (*models.MenuItem, error)
}

type Service struct {
	Store   Store
	Catalog Catalog
	Schemas *customization.SchemaCache
}

func NewService(store Store, catalog Catalog) *Service {
	return &Service{Store: store, Catalog: catalog, Schemas: customization.NewSchemaCache()}
}

type AddItemRequest struct {
	MenuItemID          string          `json:"menuItemId"`
	Quantity            decimal.Decimal `json:"quantity"`
	CustomizationIDs    []uuid.UUID     `json:"customizations"`
	SpecialInstructions string          `json:"specialInstructions"`
}

type UpdateItemRequest struct {
	Quantity            *decimal.Decimal `json:"quantity"`
	CustomizationIDs    *[]uuid.UUID     `json:"customizations"`
	SpecialInstructions *string          `json:"specialInstructions"`
}

// AddItem validates the selection and quantity against the live catalog,
// prices the line and appends it. The session is created lazily: an empty
// sessionID gets a fresh token, returned inside the cart.
func (s *Service) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*Cart, error) {
	if sessionID == "" {
		sessionID = session.NewID()
	}

	c, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = NewCart(sessionID)
	}

	item, err := s.Catalog.FindItem(ctx, req.MenuItemID)
	if err != nil {
		return nil, err
	}

	line, err := s.buildLine(item, req.Quantity, req.CustomizationIDs, req.SpecialInstructions)
	if err != nil {
		return nil, err
	}

	c.Items = append(c.Items, *line)
	c.recalculate()
	c.UpdatedAt = time.Now().UTC()

	if err := s.Store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem re-runs validation and pricing in full before touching the
// stored cart; a failing validation leaves it unchanged.
func (s *Service) UpdateItem(ctx context.Context, sessionID string, cartItemID uuid.UUID, req UpdateItemRequest) (*Cart, error) {
	c, err := s.getOrFail(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range c.Items {
		if c.Items[i].ID == cartItemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errs.NotFoundf("CART_ITEM_NOT_FOUND", "cart item '%s' not found", cartItemID)
	}

	item, err := s.Catalog.FindItem(ctx, c.Items[idx].MenuItemID.String())
	if err != nil {
		return nil, err
	}

	qty := c.Items[idx].Quantity
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	ids := selectedIDs(c.Items[idx].Customizations)
	if req.CustomizationIDs != nil {
		ids = *req.CustomizationIDs
	}
	instructions := c.Items[idx].SpecialInstructions
	if req.SpecialInstructions != nil {
		instructions = *req.SpecialInstructions
	}

	line, err := s.buildLine(item, qty, ids, instructions)
	if err != nil {
		return nil, err
	}
	line.ID = cartItemID

	c.Items[idx] = *line
	c.recalculate()
	c.UpdatedAt = time.Now().UTC()

	if err := s.Store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, cartItemID uuid.UUID) (*Cart, error) {
	c, err := s.getOrFail(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range c.Items {
		if c.Items[i].ID == cartItemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errs.NotFoundf("CART_ITEM_NOT_FOUND", "cart item '%s' not found", cartItemID)
	}

	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.recalculate()
	c.UpdatedAt = time.Now().UTC()

	if err := s.Store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the cart re-priced against the current catalog: base price,
// customization prices, tax rates and availability may all have drifted
// since a line was added. The refreshed cart is persisted back, so two
// reads without a mutation in between yield identical totals.
func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return NewCart(""), nil
	}
	c, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return NewCart(sessionID), nil
	}

	items := make(map[uuid.UUID]*models.MenuItem, len(c.Items))
	for i := range c.Items {
		line := &c.Items[i]
		item, ok := items[line.MenuItemID]
		if !ok {
			found, err := s.Catalog.FindItem(ctx, line.MenuItemID.String())
			if err != nil && !errors.Is(err, errs.ErrNotFound) {
				return nil, err
			}
			item = found
			items[line.MenuItemID] = item
		}
		if item == nil {
			// removed from the menu since it was added
			line.IsAvailable = false
			continue
		}
		s.refreshLine(line, item)
	}

	c.recalculate()
	c.UpdatedAt = time.Now().UTC()

	if err := s.Store.Save(ctx, c); err != nil {
		logging.FromContext(ctx).Warn("cart_refresh_save_failed", "session_id", sessionID, "error", err)
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.Store.Delete(ctx, sessionID)
}

func (s *Service) getOrFail(ctx context.Context, sessionID string) (*Cart, error) {
	c, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.NotFoundf("CART_NOT_FOUND", "cart not found for session '%s'", sessionID)
	}
	return c, nil
}

// buildLine runs the full validation chain (availability, quantity rule,
// advisory stock, customization schema) and prices the line.
func (s *Service) buildLine(item *models.MenuItem, qty decimal.Decimal, customizationIDs []uuid.UUID, instructions string) (*Item, error) {
	if !item.IsAvailable {
		return nil, errs.Validationf("ITEM_UNAVAILABLE", "menuItemId",
			"item '%s' is currently unavailable", item.Name)
	}
	if err := pricing.ValidateQuantity(item, qty); err != nil {
		return nil, err
	}
	if err := pricing.ValidateStock(item, qty); err != nil {
		return nil, err
	}

	selected, err := s.Schemas.For(item).Validate(customizationIDs)
	if err != nil {
		return nil, err
	}

	b := pricing.Price(item.BasePrice, selected, qty, item.Taxes)
	if selected == nil {
		selected = []customization.Selected{}
	}

	return &Item{
		ID:                  uuid.New(),
		MenuItemID:          item.ID,
		MenuItemSlug:        item.Slug,
		Name:                item.Name,
		ImageURL:            item.ImageURL,
		BasePrice:           item.BasePrice,
		Quantity:            qty,
		QuantityType:        item.QuantityType,
		Unit:                item.Unit,
		Customizations:      selected,
		SpecialInstructions: instructions,
		ItemSubtotal:        b.Subtotal,
		ItemTaxAmount:       b.TaxAmount,
		ItemTotal:           b.Total,
		IsAvailable:         item.IsAvailable,
		AvailableQuantity:   item.AvailableQuantity,
		PrepTime:            item.PrepTime,
	}, nil
}

// refreshLine re-derives a stored line from the current catalog entry.
// Customization ids that vanished from the schema keep their stored price.
func (s *Service) refreshLine(line *Item, item *models.MenuItem) {
	schema := s.Schemas.For(item)
	for i := range line.Customizations {
		if cur, ok := schema.Lookup(line.Customizations[i].ID); ok {
			line.Customizations[i] = cur
		}
	}

	b := pricing.Price(item.BasePrice, line.Customizations, line.Quantity, item.Taxes)
	line.Name = item.Name
	line.MenuItemSlug = item.Slug
	line.BasePrice = item.BasePrice
	line.ItemSubtotal = b.Subtotal
	line.ItemTaxAmount = b.TaxAmount
	line.ItemTotal = b.Total
	line.IsAvailable = item.IsAvailable
	line.AvailableQuantity = item.AvailableQuantity
	line.PrepTime = item.PrepTime
}

func selectedIDs(sel []customization.Selected) []uuid.UUID {
	ids := make([]uuid.UUID, len(sel))
	for i := range sel {
		ids[i] = sel[i].ID
	}
	return ids
}
