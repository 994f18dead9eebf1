package menu

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (models.Category, []models.MenuItem) {
	t.Helper()

	mains := models.Category{Name: "Mains", Slug: "mains", IsActive: true, DisplayOrder: 1}
	require.NoError(t, db.Create(&mains).Error)
	drinks := models.Category{Name: "Drinks", Slug: "drinks", IsActive: true, DisplayOrder: 2}
	require.NoError(t, db.Create(&drinks).Error)

	tax := models.Tax{Name: "GST", Type: models.TaxPercentage, Value: d("18")}
	require.NoError(t, db.Create(&tax).Error)

	items := []models.MenuItem{
		{
			CategoryID: mains.ID, Name: "Paneer Butter Masala", Slug: "paneer-butter-masala",
			Description: "rich tomato gravy", BasePrice: d("12.99"),
			MinQuantity: d("1"), StepQuantity: d("1"), IsAvailable: true,
			CustomizationType: models.CustomizationNone,
		},
		{
			CategoryID: mains.ID, Name: "Dal Tadka", Slug: "dal-tadka",
			BasePrice: d("8.50"), MinQuantity: d("1"), StepQuantity: d("1"),
			IsAvailable: false, CustomizationType: models.CustomizationNone,
		},
		{
			CategoryID: drinks.ID, Name: "Masala Chai", Slug: "masala-chai",
			BasePrice: d("1.80"), MinQuantity: d("1"), StepQuantity: d("1"),
			IsAvailable: true, CustomizationType: models.CustomizationNone,
		},
	}
	for i := range items {
		require.NoError(t, db.Create(&items[i]).Error)
	}
	require.NoError(t, db.Create(&models.MenuItemTax{MenuItemID: items[0].ID, TaxID: tax.ID}).Error)

	return mains, items
}

func TestFindItemBySlugAndID(t *testing.T) {
	db := initTestDB(t)
	_, items := seedCatalog(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	bySlug, err := repo.FindItem(ctx, "paneer-butter-masala")
	require.NoError(t, err)
	require.Equal(t, items[0].ID, bySlug.ID)
	require.Len(t, bySlug.Taxes, 1)
	require.Equal(t, "GST", bySlug.Taxes[0].Tax.Name)
	require.Equal(t, "Mains", bySlug.Category.Name)

	byID, err := repo.FindItem(ctx, items[0].ID.String())
	require.NoError(t, err)
	require.Equal(t, "paneer-butter-masala", byID.Slug)
}

func TestFindItemNotFound(t *testing.T) {
	db := initTestDB(t)
	seedCatalog(t, db)
	repo := NewRepo(db)

	_, err := repo.FindItem(context.Background(), "no-such-dish")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = repo.FindItem(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListItemsFilters(t *testing.T) {
	db := initTestDB(t)
	mains, _ := seedCatalog(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	all, total, err := repo.ListItems(ctx, ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, all, 3)

	byCat, total, err := repo.ListItems(ctx, ListFilter{CategoryID: &mains.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, byCat, 2)

	avail := true
	available, total, err := repo.ListItems(ctx, ListFilter{Available: &avail})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	for _, item := range available {
		require.True(t, item.IsAvailable)
	}
}

func TestListItemsSearchCaseInsensitive(t *testing.T) {
	db := initTestDB(t)
	seedCatalog(t, db)
	repo := NewRepo(db)

	found, total, err := repo.ListItems(context.Background(), ListFilter{Search: "PANEER"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Paneer Butter Masala", found[0].Name)

	// matches description too
	found, _, err = repo.ListItems(context.Background(), ListFilter{Search: "tomato"})
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestListItemsPriceRange(t *testing.T) {
	db := initTestDB(t)
	seedCatalog(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	min := d("2.00")
	cheap, total, err := repo.ListItems(ctx, ListFilter{MinPrice: &min})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	for _, item := range cheap {
		require.True(t, item.BasePrice.GreaterThanOrEqual(min))
	}

	max := d("9.00")
	mid, total, err := repo.ListItems(ctx, ListFilter{MinPrice: &min, MaxPrice: &max})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Dal Tadka", mid[0].Name)
}

func TestListItemsSorting(t *testing.T) {
	db := initTestDB(t)
	seedCatalog(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	byPrice, _, err := repo.ListItems(ctx, ListFilter{SortBy: "basePrice", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, byPrice, 3)
	require.Equal(t, "Paneer Butter Masala", byPrice[0].Name)
	require.Equal(t, "Masala Chai", byPrice[2].Name)

	// unknown sort keys fall back to name ascending
	byName, _, err := repo.ListItems(ctx, ListFilter{SortBy: "nope", SortOrder: "sideways"})
	require.NoError(t, err)
	require.Equal(t, "Dal Tadka", byName[0].Name)
}

func TestListItemsPagination(t *testing.T) {
	db := initTestDB(t)
	seedCatalog(t, db)
	repo := NewRepo(db)

	page1, total, err := repo.ListItems(context.Background(), ListFilter{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, page1, 2)

	page2, _, err := repo.ListItems(context.Background(), ListFilter{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
}

func TestFindItemsByIDsPreservesOrder(t *testing.T) {
	db := initTestDB(t)
	_, items := seedCatalog(t, db)
	repo := NewRepo(db)

	got, err := repo.FindItemsByIDs(context.Background(),
		[]uuid.UUID{items[2].ID, items[0].ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, items[2].ID, got[0].ID)
	require.Equal(t, items[0].ID, got[1].ID)
}

func TestListCategories(t *testing.T) {
	db := initTestDB(t)
	mains, _ := seedCatalog(t, db)

	child := models.Category{Name: "Curries", Slug: "curries", IsActive: true, ParentCategoryID: &mains.ID}
	require.NoError(t, db.Create(&child).Error)
	hidden := models.Category{Name: "Secret", Slug: "secret", IsActive: false}
	require.NoError(t, db.Create(&hidden).Error)

	repo := NewRepo(db)
	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	require.Equal(t, "Mains", cats[0].Name)
	require.Len(t, cats[0].ChildCategories, 1)
	require.Equal(t, "Curries", cats[0].ChildCategories[0].Name)

	// counts cover available items only, so Dal Tadka is excluded
	require.EqualValues(t, 1, cats[0].ItemCount)
	require.EqualValues(t, 1, cats[1].ItemCount)
}

func TestServiceItemDetailShapes(t *testing.T) {
	db := initTestDB(t)
	mains, _ := seedCatalog(t, db)
	svc := NewService(NewRepo(db), nil, nil)
	ctx := context.Background()

	size := models.Customization{Name: "Large", Type: models.SimpleSize, Price: d("2.00"), IsActive: true}
	require.NoError(t, db.Create(&size).Error)
	simple := models.MenuItem{
		CategoryID: mains.ID, Name: "Thali", Slug: "thali",
		BasePrice: d("15.00"), MinQuantity: d("1"), StepQuantity: d("1"),
		IsAvailable: true, CustomizationType: models.CustomizationSimple,
	}
	require.NoError(t, db.Create(&simple).Error)
	require.NoError(t, db.Create(&models.MenuItemCustomization{
		MenuItemID: simple.ID, CustomizationID: size.ID, IsRequired: true,
		MinSelections: 1, MaxSelections: 1,
	}).Error)

	detail, err := svc.Item(ctx, "thali")
	require.NoError(t, err)
	require.Len(t, detail.SimpleCustomizations, 1)
	require.Empty(t, detail.CustomizationTree)

	group := models.CustomizationNode{Type: models.NodeGroup, Name: "Extras", IsActive: true}
	opt := models.CustomizationNode{Type: models.NodeOption, Name: "Papad", Price: d("0.50"), IsActive: true}
	dag := models.MenuItem{
		CategoryID: mains.ID, Name: "Combo", Slug: "combo",
		BasePrice: d("20.00"), MinQuantity: d("1"), StepQuantity: d("1"),
		IsAvailable: true, CustomizationType: models.CustomizationDAG,
	}
	require.NoError(t, db.Create(&dag).Error)
	group.MenuItemID = dag.ID
	opt.MenuItemID = dag.ID
	require.NoError(t, db.Create(&group).Error)
	require.NoError(t, db.Create(&opt).Error)
	require.NoError(t, db.Create(&models.CustomizationEdge{
		MenuItemID: dag.ID, ParentNodeID: group.ID, ChildNodeID: opt.ID,
	}).Error)

	detail, err = svc.Item(ctx, "combo")
	require.NoError(t, err)
	require.Empty(t, detail.SimpleCustomizations)
	require.Len(t, detail.CustomizationTree, 1)
	require.Equal(t, "Extras", detail.CustomizationTree[0].Name)
	require.Len(t, detail.CustomizationTree[0].Children, 1)
}
