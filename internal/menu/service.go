// Package menu serves the browsable catalog: categories, item listings,
// item detail with its customization structure, and full-text search.
package menu

import (
	"context"
	"fmt"
	"time"

	"github.com/vmelnikov/food_ordering/internal/cache"
	"github.com/vmelnikov/food_ordering/internal/customization"
	"github.com/vmelnikov/food_ordering/internal/logging"
	"github.com/vmelnikov/food_ordering/internal/models"
)

const (
	cacheTTL    = 5 * time.Minute
	cachePrefix = "menu:"
)

type Service struct {
	Repo    *Repo
	Cache   *cache.Cache // nil disables caching
	Search  *Search      // nil disables full-text search
	Schemas *customization.SchemaCache
}

func NewService(repo *Repo, c *cache.Cache, search *Search) *Service {
	return &Service{
		Repo:    repo,
		Cache:   c,
		Search:  search,
		Schemas: customization.NewSchemaCache(),
	}
}

// ItemDetail is the full display form of one item: the raw record plus its
// customization structure in the shape matching its mode.
type ItemDetail struct {
	models.MenuItem
	SimpleCustomizations []models.MenuItemCustomization `json:"simpleCustomizations,omitempty"`
	CustomizationTree    []customization.TreeNode       `json:"customizationTree,omitempty"`
}

type ItemPage struct {
	Items   []models.MenuItem `json:"items"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"perPage"`
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	key := cachePrefix + "categories"

	var cached []models.Category
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, cats)
	return cats, nil
}

func (s *Service) Category(ctx context.Context, idOrSlug string) (*models.Category, error) {
	key := cachePrefix + "category:" + idOrSlug

	var cached models.Category
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	cat, err := s.Repo.FindCategory(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, cat)
	return cat, nil
}

func (s *Service) Items(ctx context.Context, filter ListFilter) (*ItemPage, error) {
	filter.normalize()
	key := itemsKey(filter)

	var cached ItemPage
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	items, total, err := s.Repo.ListItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := &ItemPage{Items: items, Total: total, Page: filter.Page, PerPage: filter.PerPage}
	s.cacheSet(ctx, key, page)
	return page, nil
}

// Item returns the detail view. SIMPLE items carry their slot list, DAG
// items their display tree.
func (s *Service) Item(ctx context.Context, idOrSlug string) (*ItemDetail, error) {
	key := cachePrefix + "item:" + idOrSlug

	var cached ItemDetail
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	item, err := s.Repo.FindItem(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	detail := &ItemDetail{MenuItem: *item}
	switch item.CustomizationType {
	case models.CustomizationSimple:
		detail.SimpleCustomizations = item.Customizations
	case models.CustomizationDAG:
		tree, err := s.Schemas.For(item).Tree()
		if err != nil {
			return nil, err
		}
		detail.CustomizationTree = tree
	}

	s.cacheSet(ctx, key, detail)
	return detail, nil
}

// FindItem is the live (uncached) catalog read used by cart and order
// validation, where stale prices or availability are not acceptable.
func (s *Service) FindItem(ctx context.Context, idOrSlug string) (*models.MenuItem, error) {
	return s.Repo.FindItem(ctx, idOrSlug)
}

// SearchItems runs full-text search and hydrates hits from the database in
// relevance order.
func (s *Service) SearchItems(ctx context.Context, query string, page, perPage int) (*ItemPage, error) {
	if s.Search == nil {
		// degrade to a LIKE scan when Elasticsearch is not configured
		return s.Items(ctx, ListFilter{Search: query, Page: page, PerPage: perPage})
	}

	f := ListFilter{Page: page, PerPage: perPage}
	f.normalize()

	total, ids, err := s.Search.Query(ctx, query, (f.Page-1)*f.PerPage, f.PerPage)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.FindItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &ItemPage{Items: items, Total: total, Page: f.Page, PerPage: f.PerPage}, nil
}

// ReindexSearch pushes every menu item into the search index. Called at
// startup; safe to re-run.
func (s *Service) ReindexSearch(ctx context.Context) error {
	if s.Search == nil {
		return nil
	}

	page := 1
	for {
		items, _, err := s.Repo.ListItems(ctx, ListFilter{Page: page, PerPage: 100})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			if err := s.Search.IndexItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		page++
	}
}

// InvalidateCache drops every cached menu response, for use after catalog
// edits.
func (s *Service) InvalidateCache(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.DeletePattern(ctx, cachePrefix+"*")
}

// Cache failures never fail a request; they are logged and the database
// answers instead.
func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.Cache == nil {
		return false
	}
	ok, err := s.Cache.Get(ctx, key, dest)
	if err != nil {
		logging.FromContext(ctx).Warn("menu_cache_get_failed", "key", key, "error", err)
		return false
	}
	return ok
}

func (s *Service) cacheSet(ctx context.Context, key string, val any) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, val, cacheTTL); err != nil {
		logging.FromContext(ctx).Warn("menu_cache_set_failed", "key", key, "error", err)
	}
}

func itemsKey(f ListFilter) string {
	cat := ""
	if f.CategoryID != nil {
		cat = f.CategoryID.String()
	}
	avail := ""
	if f.Available != nil {
		avail = fmt.Sprintf("%t", *f.Available)
	}
	min, max := "", ""
	if f.MinPrice != nil {
		min = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		max = f.MaxPrice.String()
	}
	return fmt.Sprintf("%sitems:%s:%s:%s:%s:%s:%s:%s:%d:%d",
		cachePrefix, cat, avail, f.Search, min, max, f.SortBy, f.SortOrder, f.Page, f.PerPage)
}
