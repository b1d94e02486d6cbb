package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	store repository.Store
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(store repository.Store, c cache.CartCache) *CartService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &CartService{
		store: store,
		cache: c,
	}
}

// AddToCart adds quantity of the product to the caller's active cart, creating the
// cart on first use. A product already in the cart keeps its original price snapshot.
func (s *CartService) AddToCart(ctx context.Context, id domain.Identity, productID int64, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		return nil, domain.Validationf("quantity must be positive")
	}
	if quantity > domain.MaxAddQuantity {
		return nil, domain.Validationf("quantity must not exceed %d", domain.MaxAddQuantity)
	}

	var line *domain.CartLine
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		p, err := q.GetProduct(ctx, productID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return domain.NotFoundf("product %d not found", productID)
		}
		if err != nil {
			return err
		}
		if !p.IsActive {
			return domain.NotFoundf("product %d not found", productID)
		}

		cart, err := lockCartForAdd(ctx, q, id.UserID)
		if err != nil {
			return err
		}

		line, err = q.AddCartLine(ctx, &domain.CartLine{
			CartID:      cart.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    quantity,
			Price:       p.Price,
			Discount:    p.Discount,
		})
		if err != nil {
			return err
		}
		if line.Quantity > domain.MaxLineQuantity {
			return domain.Validationf("cart item quantity must not exceed %d", domain.MaxLineQuantity)
		}
		line.ProductName = p.Name
		return nil
	})
	if err != nil {
		return nil, fail(ctx, "add to cart", err)
	}

	s.invalidateCache(ctx, id.UserID)
	return line, nil
}

// ViewCart prices the caller's active cart. No cart yields an empty view.
func (s *CartService) ViewCart(ctx context.Context, id domain.Identity) (*domain.CartView, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(id.UserID, 10), func() (interface{}, error) {
		log := zerolog.Ctx(ctx)
		view, err := s.cache.Get(ctx, id.UserID)
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Int64("user_id", id.UserID).Msg("cache get error")
		}

		// read before loading; a write committed after this point bumps it
		gen, errGen := s.cache.Generation(ctx, id.UserID)
		if errGen != nil {
			log.Warn().Err(errGen).Int64("user_id", id.UserID).Msg("cache generation error")
		}

		view, err = s.loadCart(ctx, id.UserID)
		if err != nil {
			return nil, err
		}

		if errGen != nil {
			return view, nil
		}
		errSet := s.cache.Set(ctx, id.UserID, gen, view)
		switch {
		case errors.Is(errSet, cache.ErrStaleGeneration):
			log.Debug().Int64("user_id", id.UserID).Msg("cart changed during load, not cached")
		case errSet != nil:
			log.Warn().Err(errSet).Int64("user_id", id.UserID).Msg("cache set error")
		}
		return view, nil
	})
	if err != nil {
		return nil, fail(ctx, "view cart", err)
	}

	return v.(*domain.CartView), nil
}

func (s *CartService) loadCart(ctx context.Context, userID int64) (*domain.CartView, error) {
	cart, err := s.store.GetActiveCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.EmptyCartView(userID), nil
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.store.ListCartLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return domain.NewCartView(userID, cart.ID, lines), nil
}

// UpdateQuantity applies delta to a line of the caller's cart and returns the new
// quantity. A result of zero or less is rejected without touching the line.
func (s *CartService) UpdateQuantity(ctx context.Context, id domain.Identity, lineID int64, delta int) (int, error) {
	if delta > domain.MaxLineQuantity || delta < -domain.MaxLineQuantity {
		return 0, domain.Validationf("quantity change out of range")
	}

	var newQuantity int
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		locked, err := s.lockOwnedLine(ctx, q, id, lineID)
		if err != nil {
			return err
		}

		newQuantity = locked.Line.Quantity + delta
		if newQuantity <= 0 {
			return domain.Validationf("quantity must stay positive, remove the item instead")
		}
		if newQuantity > domain.MaxLineQuantity {
			return domain.Validationf("cart item quantity must not exceed %d", domain.MaxLineQuantity)
		}
		return q.SetCartLineQuantity(ctx, lineID, newQuantity)
	})
	if err != nil {
		return 0, fail(ctx, "update cart quantity", err)
	}

	s.invalidateCache(ctx, id.UserID)
	return newQuantity, nil
}

// RemoveLine deletes a line from the caller's cart. The cart itself is kept.
func (s *CartService) RemoveLine(ctx context.Context, id domain.Identity, lineID int64) error {
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		if _, err := s.lockOwnedLine(ctx, q, id, lineID); err != nil {
			return err
		}
		return q.DeleteCartLine(ctx, lineID)
	})
	if err != nil {
		return fail(ctx, "remove cart line", err)
	}

	s.invalidateCache(ctx, id.UserID)
	return nil
}

// lockCartForAdd returns the user's active cart locked for the rest of the transaction.
// A checkout that commits between creating and locking the cart leaves no active row to
// lock; the next attempt then creates a fresh cart.
func lockCartForAdd(ctx context.Context, q repository.Queries, userID int64) (*domain.Cart, error) {
	for attempt := 0; attempt < 3; attempt++ {
		if _, err := q.EnsureActiveCart(ctx, userID); err != nil {
			return nil, err
		}
		cart, err := q.LockActiveCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			continue
		}
		return cart, err
	}
	return nil, domain.Conflictf("cart is being checked out, try again")
}

func (s *CartService) lockOwnedLine(ctx context.Context, q repository.Queries, id domain.Identity, lineID int64) (*repository.LockedCartLine, error) {
	locked, err := q.LockCartLine(ctx, lineID)
	if errors.Is(err, repository.ErrCartLineNotFound) {
		return nil, domain.NotFoundf("cart item %d not found", lineID)
	}
	if err != nil {
		return nil, err
	}
	if !id.Owns(locked.OwnerID) {
		return nil, domain.Forbiddenf("cart item %d belongs to another user", lineID)
	}
	if locked.IsCheckedOut {
		return nil, domain.Conflictf("cart item %d belongs to a checked-out cart", lineID)
	}
	return locked, nil
}

func (s *CartService) invalidateCache(ctx context.Context, userID int64) {
	invalidateCart(ctx, s.cache, userID)
}

func invalidateCart(ctx context.Context, c cache.CartCache, userID int64) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := c.Delete(delCtx, userID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("cache invalidate error")
	}
}
