package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
)

type Repo struct {
	DB *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// ListFilter narrows, sorts and pages the item listing. Page is 1-based.
type ListFilter struct {
	CategoryID *uuid.UUID
	Available  *bool
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string // name | basePrice | createdAt
	SortOrder  string // asc | desc
	Page       int
	PerPage    int
}

var sortColumns = map[string]string{
	"name":      "name",
	"basePrice": "base_price",
	"createdAt": "created_at",
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "name"
	}
	if f.SortOrder != "desc" {
		f.SortOrder = "asc"
	}
}

func withAssociations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Category").
		Preload("Taxes", func(db *gorm.DB) *gorm.DB { return db.Order("apply_order ASC") }).
		Preload("Taxes.Tax").
		Preload("Customizations", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Customizations.Customization").
		Preload("Nodes", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Edges", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") })
}

// FindItem loads one item with every association by id or by slug.
func (r *Repo) FindItem(ctx context.Context, idOrSlug string) (*models.MenuItem, error) {
	q := withAssociations(r.DB.WithContext(ctx))
	if id, err := uuid.Parse(idOrSlug); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", idOrSlug)
	}

	var item models.MenuItem
	if err := q.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("ITEM_NOT_FOUND", "menu item '%s' not found", idOrSlug)
		}
		return nil, fmt.Errorf("%w: find menu item: %v", errs.ErrInternal, err)
	}
	return &item, nil
}

func (r *Repo) ListItems(ctx context.Context, filter ListFilter) ([]models.MenuItem, int64, error) {
	filter.normalize()

	q := r.DB.WithContext(ctx).Model(&models.MenuItem{})
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Available != nil {
		q = q.Where("is_available = ?", *filter.Available)
	}
	if filter.Search != "" {
		// LOWER/LIKE instead of ILIKE so the same query runs on sqlite
		pattern := "%" + filter.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if filter.MinPrice != nil {
		q = q.Where("base_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("base_price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count menu items: %v", errs.ErrInternal, err)
	}

	var items []models.MenuItem
	err := withAssociations(q).
		Order(sortColumns[filter.SortBy] + " " + filter.SortOrder).
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list menu items: %v", errs.ErrInternal, err)
	}
	return items, total, nil
}

// FindItemsByIDs loads the given items with associations, preserving the
// order of ids (search relevance order).
func (r *Repo) FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var items []models.MenuItem
	err := withAssociations(r.DB.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%w: find menu items: %v", errs.ErrInternal, err)
	}

	byID := make(map[uuid.UUID]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]models.MenuItem, 0, len(items))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.DB.WithContext(ctx).
		Where("is_active = ? AND parent_category_id IS NULL", true).
		Preload("ChildCategories", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("display_order ASC")
		}).
		Order("display_order ASC").
		Find(&cats).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list categories: %v", errs.ErrInternal, err)
	}
	counts, err := r.categoryItemCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		cats[i].ItemCount = counts[cats[i].ID]
		for j := range cats[i].ChildCategories {
			cats[i].ChildCategories[j].ItemCount = counts[cats[i].ChildCategories[j].ID]
		}
	}
	return cats, nil
}

func (r *Repo) categoryItemCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		CategoryID uuid.UUID
		N          int64
	}
	err := r.DB.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select("category_id, COUNT(*) AS n").
		Where("is_available = ?", true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: count category items: %v", errs.ErrInternal, err)
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.N
	}
	return counts, nil
}

func (r *Repo) FindCategory(ctx context.Context, idOrSlug string) (*models.Category, error) {
	q := r.DB.WithContext(ctx).
		Preload("ChildCategories", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("display_order ASC")
		})
	if id, err := uuid.Parse(idOrSlug); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", idOrSlug)
	}

	var cat models.Category
	if err := q.First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("CATEGORY_NOT_FOUND", "category '%s' not found", idOrSlug)
		}
		return nil, fmt.Errorf("%w: find category: %v", errs.ErrInternal, err)
	}
	return &cat, nil
}
