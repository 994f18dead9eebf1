// Package orders converts a priced cart into an immutable order record,
// the only write path that touches stock.
package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vmelnikov/food_ordering/internal/cart"
	"github.com/vmelnikov/food_ordering/internal/customization"
	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/events"
	"github.com/vmelnikov/food_ordering/internal/logging"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/pricing"
	"github.com/vmelnikov/food_ordering/internal/users"
)

const minPrepTime = 15

type Catalog interface {
	FindItem(ctx context.Context, idOrSlug string) (*models.MenuItem, error)
}

type Service struct {
	Repo    *Repo
	Carts   cart.Store
	Catalog Catalog
	Users   *users.Repo
	Sink    events.Sink
	Schemas *customization.SchemaCache
}

func NewService(repo *Repo, carts cart.Store, catalog Catalog, userRepo *users.Repo, sink events.Sink) *Service {
	return &Service{
		Repo:    repo,
		Carts:   carts,
		Catalog: catalog,
		Users:   userRepo,
		Sink:    sink,
		Schemas: customization.NewSchemaCache(),
	}
}

type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type CreateRequest struct {
	SessionID           string   `json:"-"`
	SpecialInstructions string   `json:"specialInstructions"`
	Contact             *Contact `json:"contact"`
}

// Create turns the session's cart into an order. Every line is
// re-validated and re-priced against the live catalog at this moment; the
// cart's displayed totals are advisory only. On success the cart is gone
// and stock for tracked items is decremented.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Order, error) {
	c, err := s.Carts.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Items) == 0 {
		return nil, errs.Validationf("EMPTY_CART", "",
			"cannot create an order from an empty cart")
	}

	order := &models.Order{
		SessionID:           req.SessionID,
		Status:              models.StatusReceived,
		SpecialInstructions: req.SpecialInstructions,
	}

	if req.Contact != nil {
		user, err := s.Users.FindOrCreate(ctx, req.Contact.Phone, req.Contact.Email, req.Contact.Name)
		if err != nil {
			return nil, err
		}
		order.UserID = &user.ID
	}

	catalogByID := make(map[uuid.UUID]*models.MenuItem, len(c.Items))
	var unavailable []string

	subtotal := decimal.Zero
	taxTotals := make(map[uuid.UUID]*models.OrderTax)
	var taxOrder []uuid.UUID
	decrements := make(map[uuid.UUID]decimal.Decimal)
	prepTime := minPrepTime

	for _, line := range c.Items {
		item, ok := catalogByID[line.MenuItemID]
		if !ok {
			found, err := s.Catalog.FindItem(ctx, line.MenuItemID.String())
			if err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					unavailable = append(unavailable, line.Name)
					continue
				}
				return nil, err
			}
			item = found
			catalogByID[line.MenuItemID] = item
		}
		if !item.IsAvailable {
			unavailable = append(unavailable, item.Name)
			continue
		}
		if len(unavailable) > 0 {
			continue
		}

		if err := pricing.ValidateQuantity(item, line.Quantity); err != nil {
			return nil, err
		}
		selected, err := s.Schemas.For(item).Validate(selectionIDs(line.Customizations))
		if err != nil {
			return nil, err
		}

		b := pricing.Price(item.BasePrice, selected, line.Quantity, item.Taxes)
		subtotal = subtotal.Add(b.Subtotal)

		// tax line amounts are unrounded; each tax rounds once, after
		// summing across every line it touches
		for _, tl := range b.TaxLines {
			taxID := uuid.MustParse(tl.TaxID)
			agg, ok := taxTotals[taxID]
			if !ok {
				agg = &models.OrderTax{
					TaxID:            taxID,
					TaxName:          tl.Name,
					TaxType:          tl.Type,
					TaxValue:         tl.Value,
					CalculatedAmount: decimal.Zero,
				}
				taxTotals[taxID] = agg
				taxOrder = append(taxOrder, taxID)
			}
			agg.CalculatedAmount = agg.CalculatedAmount.Add(tl.Amount)
		}

		if item.AvailableQuantity != nil {
			decrements[item.ID] = decrements[item.ID].Add(line.Quantity)
		}
		if item.PrepTime > prepTime {
			prepTime = item.PrepTime
		}

		customizationTotal := decimal.Zero
		orderItem := models.OrderItem{
			MenuItemID:          item.ID,
			ItemName:            item.Name,
			ItemBasePrice:       item.BasePrice,
			Quantity:            line.Quantity,
			QuantityType:        item.QuantityType,
			Unit:                item.Unit,
			SpecialInstructions: line.SpecialInstructions,
			ItemSubtotal:        b.Subtotal,
			ItemTaxAmount:       b.TaxAmount,
			ItemTotal:           b.Total,
			PrepTime:            item.PrepTime,
		}
		for _, sel := range selected {
			customizationTotal = customizationTotal.Add(sel.Price.Mul(line.Quantity))
			orderItem.Customizations = append(orderItem.Customizations, models.OrderItemCustomization{
				Name:  sel.Name,
				Type:  sel.Type,
				Price: sel.Price,
			})
		}
		orderItem.CustomizationTotal = customizationTotal.Round(2)
		order.Items = append(order.Items, orderItem)
	}

	if len(unavailable) > 0 {
		return nil, errs.Validationf("UNAVAILABLE_ITEMS", "items",
			"items no longer available: %s", strings.Join(unavailable, ", "))
	}

	taxAmount := decimal.Zero
	for _, taxID := range taxOrder {
		agg := taxTotals[taxID]
		agg.CalculatedAmount = agg.CalculatedAmount.Round(2)
		taxAmount = taxAmount.Add(agg.CalculatedAmount)
		order.Taxes = append(order.Taxes, *agg)
	}

	order.Subtotal = subtotal
	order.TaxAmount = taxAmount
	order.TotalAmount = subtotal.Add(taxAmount)
	order.EstimatedPrepTime = prepTime
	order.StatusHistory = []models.OrderStatusHistory{{
		Status:    models.StatusReceived,
		ChangedBy: "system",
		Notes:     "Order placed",
	}}

	if err := s.Repo.Create(ctx, order, decrements); err != nil {
		return nil, err
	}

	if err := s.Carts.Delete(ctx, req.SessionID); err != nil {
		logging.FromContext(ctx).Warn("cart_delete_failed",
			"session_id", req.SessionID, "order_number", order.OrderNumber, "error", err)
	}

	events.PublishNewOrder(ctx, s.Sink, order)
	return order, nil
}

// Get resolves an order by uuid or by its ORD- number.
func (s *Service) Get(ctx context.Context, idOrNumber string) (*models.Order, error) {
	if id, err := uuid.Parse(idOrNumber); err == nil {
		return s.Repo.FindByID(ctx, id)
	}
	return s.Repo.FindByNumber(ctx, idOrNumber)
}

func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]models.Order, error) {
	return s.Repo.ListBySession(ctx, sessionID)
}

// History lists every order placed under the contact's user record,
// resolving by phone first, then email.
func (s *Service) History(ctx context.Context, phone, email string) ([]models.Order, error) {
	if phone == "" && email == "" {
		return nil, errs.Validationf("CONTACT_REQUIRED", "phone",
			"phone or email is required to look up order history")
	}

	var user *models.User
	var err error
	if phone != "" {
		user, err = s.Users.FindByPhone(ctx, phone)
	} else {
		user, err = s.Users.FindByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return []models.Order{}, nil
		}
		return nil, err
	}
	return s.Repo.ListByUser(ctx, user.ID)
}

func selectionIDs(sel []customization.Selected) []uuid.UUID {
	ids := make([]uuid.UUID, len(sel))
	for i := range sel {
		ids[i] = sel[i].ID
	}
	return ids
}
