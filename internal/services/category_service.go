package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

const categoriesKey = "categories"

// CategoryService serves the category taxonomy from a TTL cache.
type CategoryService struct {
	categories store.CategoryStore
	cache      *cache.LRUCache[[]core.Category]
	logger     *applog.Logger
}

func NewCategoryService(categories store.CategoryStore, ttl time.Duration, logger *applog.Logger) *CategoryService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &CategoryService{
		categories: categories,
		cache:      cache.NewLRUCache[[]core.Category](1, ttl),
		logger:     logger.WithComponent(applog.ComponentCache),
	}
}

// List returns every category. Callers must not modify the slice.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return cache.GetOrLoad[[]core.Category](ctx, s.cache, categoriesKey, func(ctx context.Context) ([]core.Category, error) {
		cats, err := s.categories.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		s.logger.DebugContext(ctx, "Category cache refreshed", "count", len(cats))
		return cats, nil
	})
}

// Names indexes category names by ID.
func (s *CategoryService) Names(ctx context.Context) (map[string]string, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return store.CategoryNames(cats), nil
}

// Cache exposes the underlying cache for registration with a cleanup manager.
func (s *CategoryService) Cache() cache.Cleaner {
	return s.cache
}
