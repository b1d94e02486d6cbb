package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

// CartCache stores priced cart views keyed by user id.
//
// Every invalidation bumps a per-user generation. A reader takes the generation before
// loading the cart from the store and hands it to Set, which refuses to store the view
// once a write has invalidated the cart in between.
type CartCache interface {
	Get(ctx context.Context, userID int64) (*domain.CartView, error)
	Generation(ctx context.Context, userID int64) (int64, error)
	Set(ctx context.Context, userID int64, gen int64, view *domain.CartView) error
	Delete(ctx context.Context, userID int64) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleGeneration is returned by Set when the cart was invalidated after the
	// generation was read.
	ErrStaleGeneration = errors.New("cart invalidated since load")
)

// NopCache always misses. It is used when no redis address is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, int64) (*domain.CartView, error) {
	return nil, ErrCacheMiss
}

func (NopCache) Generation(context.Context, int64) (int64, error) {
	return 0, nil
}

func (NopCache) Set(context.Context, int64, int64, *domain.CartView) error {
	return nil
}

func (NopCache) Delete(context.Context, int64) error {
	return nil
}
