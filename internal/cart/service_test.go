package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/session"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type fakeCatalog struct {
	items map[uuid.UUID]*models.MenuItem
}

func (f *fakeCatalog) FindItem(_ context.Context, idOrSlug string) (*models.MenuItem, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		if item, ok := f.items[id]; ok {
			return item, nil
		}
	}
	for _, item := range f.items {
		if item.Slug == idOrSlug {
			return item, nil
		}
	}
	return nil, errs.NotFoundf("ITEM_NOT_FOUND", "menu item '%s' not found", idOrSlug)
}

func newTestService(items ...*models.MenuItem) (*Service, *fakeCatalog) {
	catalog := &fakeCatalog{items: map[uuid.UUID]*models.MenuItem{}}
	for _, item := range items {
		catalog.items[item.ID] = item
	}
	return NewService(NewMemoryStore(), catalog), catalog
}

func burger() *models.MenuItem {
	return &models.MenuItem{
		ID:                uuid.New(),
		Name:              "Veggie Burger",
		Slug:              "veggie-burger",
		BasePrice:         d("8.50"),
		QuantityType:      models.QuantityUnit,
		MinQuantity:       d("1"),
		StepQuantity:      d("1"),
		IsAvailable:       true,
		CustomizationType: models.CustomizationNone,
		Taxes: []models.MenuItemTax{{
			TaxID: uuid.New(),
			Tax:   models.Tax{ID: uuid.New(), Name: "GST", Type: models.TaxPercentage, Value: d("10")},
		}},
	}
}

func TestAddItemCreatesSession(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)

	c, err := svc.AddItem(context.Background(), "", AddItemRequest{
		MenuItemID: item.ID.String(),
		Quantity:   d("2"),
	})
	require.NoError(t, err)
	require.True(t, session.IsValidID(c.SessionID))
	require.Len(t, c.Items, 1)
	require.Equal(t, "17.00", c.Subtotal.StringFixed(2))
	require.Equal(t, "1.70", c.TaxAmount.StringFixed(2))
	require.Equal(t, "18.70", c.Total.StringFixed(2))
	require.True(t, c.CanCheckout)
}

func TestAddItemUnavailable(t *testing.T) {
	item := burger()
	item.IsAvailable = false
	svc, _ := newTestService(item)

	_, err := svc.AddItem(context.Background(), "", AddItemRequest{
		MenuItemID: item.ID.String(),
		Quantity:   d("1"),
	})
	e, ok := errs.AsError(err)
	require.True(t, ok)
	require.Equal(t, "ITEM_UNAVAILABLE", e.Code)
}

func TestAddItemQuantityRuleApplies(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)

	_, err := svc.AddItem(context.Background(), "", AddItemRequest{
		MenuItemID: item.ID.String(),
		Quantity:   d("0.5"),
	})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestUpdateItemQuantity(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("1")})
	require.NoError(t, err)

	qty := d("3")
	c, err = svc.UpdateItem(ctx, c.SessionID, c.Items[0].ID, UpdateItemRequest{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, "25.50", c.Subtotal.StringFixed(2))
}

func TestUpdateItemFailedValidationLeavesCart(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("2")})
	require.NoError(t, err)

	bad := d("0.5")
	_, err = svc.UpdateItem(ctx, c.SessionID, c.Items[0].ID, UpdateItemRequest{Quantity: &bad})
	require.ErrorIs(t, err, errs.ErrValidation)

	c, err = svc.Get(ctx, c.SessionID)
	require.NoError(t, err)
	require.Equal(t, "2", c.Items[0].Quantity.String())
}

func TestRemoveItem(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("1")})
	require.NoError(t, err)

	c, err = svc.RemoveItem(ctx, c.SessionID, c.Items[0].ID)
	require.NoError(t, err)
	require.Empty(t, c.Items)
	require.True(t, c.Total.IsZero())
	require.False(t, c.CanCheckout)
}

func TestRemoveItemNotInCart(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("1")})
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, c.SessionID, uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetRefreshesPrices(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("2")})
	require.NoError(t, err)
	require.Equal(t, "17.00", c.Subtotal.StringFixed(2))

	item.BasePrice = d("9.00")

	c, err = svc.Get(ctx, c.SessionID)
	require.NoError(t, err)
	require.Equal(t, "18.00", c.Subtotal.StringFixed(2))
	require.Equal(t, "19.80", c.Total.StringFixed(2))
}

func TestGetMarksVanishedItemUnavailable(t *testing.T) {
	item := burger()
	svc, catalog := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("1")})
	require.NoError(t, err)

	delete(catalog.items, item.ID)

	c, err = svc.Get(ctx, c.SessionID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.False(t, c.Items[0].IsAvailable)
	require.False(t, c.CanCheckout)
}

func TestGetIsIdempotent(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("2")})
	require.NoError(t, err)

	first, err := svc.Get(ctx, c.SessionID)
	require.NoError(t, err)
	second, err := svc.Get(ctx, c.SessionID)
	require.NoError(t, err)
	require.True(t, first.Total.Equal(second.Total))
	require.Equal(t, len(first.Items), len(second.Items))
}

func TestGetUnknownSessionReturnsEmptyCart(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.Get(context.Background(), session.NewID())
	require.NoError(t, err)
	require.Empty(t, c.Items)
	require.False(t, c.CanCheckout)
}

func TestClear(t *testing.T) {
	item := burger()
	svc, _ := newTestService(item)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "", AddItemRequest{MenuItemID: item.ID.String(), Quantity: d("1")})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, c.SessionID))

	c, err = svc.Get(ctx, c.SessionID)
	require.NoError(t, err)
	require.Empty(t, c.Items)
}
