package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/rawnaqshop/dashboard-service/internal/notify"
	"github.com/rawnaqshop/dashboard-service/internal/store"
	"github.com/rawnaqshop/dashboard-service/internal/store/dto"
	rediscache "github.com/rawnaqshop/dashboard-service/pkg/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotCached reports a targeted patch against a row the snapshot does not
// hold; callers fall back to a full refresh.
var ErrNotCached = errors.New("row not in cached snapshot")

var ErrInsufficientStock = errors.New("insufficient stock")

// Indexer mirrors the search-index sync surface; nil disables syncing.
type Indexer interface {
	Sync(ctx context.Context, p *model.Product)
	Remove(ctx context.Context, id int64)
}

// Provider owns the snapshot lifecycle: it fills the cache from the remote
// store in one parallel bulk fetch, serves reads from the cache, and applies
// mutations remote-first with an optimistic local patch.
type Provider struct {
	store    store.Store
	cache    *Cache
	locks    *rediscache.RedisClient // nil disables stock locks
	indexer  Indexer                 // nil disables search sync
	notifier notify.Notifier
	logger   *zap.Logger
	ttl      time.Duration

	now func() time.Time

	mu      sync.Mutex
	lastErr error

	// patchMu serializes the clone-and-patch read-modify-write; without it two
	// concurrent mutations clone the same base and the later one erases the
	// earlier one's change.
	patchMu sync.Mutex
}

func NewProvider(
	st store.Store,
	cache *Cache,
	locks *rediscache.RedisClient,
	indexer Indexer,
	notifier notify.Notifier,
	logger *zap.Logger,
	ttl time.Duration,
) *Provider {
	return &Provider{
		store:    st,
		cache:    cache,
		locks:    locks,
		indexer:  indexer,
		notifier: notifier,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Fetch returns the cached snapshot when it is still fresh and force is
// unset; otherwise it issues the full set of entity queries in parallel and
// publishes the result. A failed fetch leaves the prior snapshot in place.
func (p *Provider) Fetch(ctx context.Context, force bool) (*model.Snapshot, error) {
	if !force {
		if snap, ok := p.cache.Fresh(p.ttl, p.now()); ok {
			return snap, nil
		}
	}

	// Reserve the version before querying so a patch that lands while this
	// fetch is in flight outranks it.
	snap := &model.Snapshot{Version: p.cache.NextVersion()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.Departments, err = p.store.Departments(gctx); return })
	g.Go(func() (err error) { snap.Categories, err = p.store.Categories(gctx); return })
	g.Go(func() (err error) { snap.Colors, err = p.store.Colors(gctx); return })
	g.Go(func() (err error) { snap.Sizes, err = p.store.Sizes(gctx); return })
	g.Go(func() (err error) { snap.Products, err = p.store.Products(gctx); return })
	g.Go(func() (err error) { snap.Customers, err = p.store.Customers(gctx); return })
	g.Go(func() (err error) { snap.Orders, err = p.store.Orders(gctx); return })
	g.Go(func() (err error) { snap.Profits, err = p.store.Profits(gctx); return })
	g.Go(func() (err error) { snap.Profiles, err = p.store.Profiles(gctx); return })

	if err := g.Wait(); err != nil {
		p.setErr(err)
		p.logger.Error("snapshot fetch failed", zap.Error(err))
		p.notifier.Failure(ctx, "Data refresh failed", err.Error())
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	fetchedAt := p.now()
	snap.FetchedAt = fetchedAt
	if !p.cache.Publish(snap, fetchedAt) {
		// Newer data won while we were fetching; serve it instead.
		current, _ := p.cache.Get()
		p.setErr(nil)
		return current, nil
	}

	p.setErr(nil)
	p.logger.Debug("snapshot published",
		zap.Uint64("version", snap.Version),
		zap.Int("products", len(snap.Products)),
		zap.Int("orders", len(snap.Orders)),
	)
	return snap, nil
}

// Refresh always bypasses the TTL.
func (p *Provider) Refresh(ctx context.Context) error {
	_, err := p.Fetch(ctx, true)
	return err
}

// Current returns whatever the cache holds, fresh or not.
func (p *Provider) Current() (*model.Snapshot, bool) {
	return p.cache.Get()
}

// Err returns the error of the most recent failed fetch, cleared on success.
func (p *Provider) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Provider) setErr(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// patch applies mutate to a clone of the cached snapshot and installs it
// under a new version, leaving the TTL expired. No-op when nothing is cached.
// Patches are serialized so each one clones the latest snapshot, never a base
// another in-flight patch is also modifying.
func (p *Provider) patch(mutate func(next *model.Snapshot)) {
	p.patchMu.Lock()
	defer p.patchMu.Unlock()

	current, ok := p.cache.Get()
	if !ok {
		return
	}
	next := current.Clone()
	mutate(next)
	next.Version = p.cache.NextVersion()
	p.cache.Patch(next)
}

func (p *Provider) UpdateProduct(ctx context.Context, id int64, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := p.store.UpdateProduct(ctx, id, input); err != nil {
		p.notifier.Failure(ctx, "Product update failed", err.Error())
		return nil, err
	}

	var updated *model.Product
	p.patch(func(next *model.Snapshot) {
		products := make([]model.Product, len(next.Products))
		copy(products, next.Products)
		for i := range products {
			if products[i].ID == id {
				applyProductUpdate(&products[i], input, p.now())
				row := products[i]
				updated = &row
				break
			}
		}
		next.Products = products
	})

	if updated == nil {
		// Not in the cached window (or nothing cached); hydrate for the caller.
		row, err := p.store.ProductByID(ctx, id)
		if err == nil {
			updated = row
		}
	}

	if p.indexer != nil && updated != nil {
		go p.indexer.Sync(context.Background(), updated)
	}

	p.notifier.Success(ctx, "Product updated", fmt.Sprintf("product %d updated", id))
	return updated, nil
}

func (p *Provider) AddProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	created, err := p.store.InsertProduct(ctx, input)
	if err != nil {
		p.notifier.Failure(ctx, "Product creation failed", err.Error())
		return nil, err
	}

	p.patch(func(next *model.Snapshot) {
		products := make([]model.Product, 0, len(next.Products)+1)
		products = append(products, *created)
		products = append(products, next.Products...)
		next.Products = products
	})

	if p.indexer != nil {
		go p.indexer.Sync(context.Background(), created)
	}

	p.notifier.Success(ctx, "Product added", created.Name)
	return created, nil
}

func (p *Provider) UpdateOrder(ctx context.Context, id int64, input *dto.UpdateOrderInput) (*model.Order, error) {
	if err := p.store.UpdateOrder(ctx, id, input); err != nil {
		p.notifier.Failure(ctx, "Order update failed", err.Error())
		return nil, err
	}

	var updated *model.Order
	p.patch(func(next *model.Snapshot) {
		orders := make([]model.Order, len(next.Orders))
		copy(orders, next.Orders)
		for i := range orders {
			if orders[i].ID == id {
				applyOrderUpdate(&orders[i], input, p.now())
				row := orders[i]
				updated = &row
				break
			}
		}
		next.Orders = orders
	})

	if updated == nil {
		row, err := p.store.OrderByID(ctx, id)
		if err == nil {
			updated = row
		}
	}

	p.notifier.Success(ctx, "Order updated", fmt.Sprintf("order %d updated", id))
	return updated, nil
}

func (p *Provider) AddOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	created, err := p.store.InsertOrder(ctx, input)
	if err != nil {
		p.notifier.Failure(ctx, "Order creation failed", err.Error())
		return nil, err
	}

	p.patch(func(next *model.Snapshot) {
		orders := make([]model.Order, 0, len(next.Orders)+1)
		orders = append(orders, *created)
		orders = append(orders, next.Orders...)
		next.Orders = orders
	})

	p.notifier.Success(ctx, "Order created", created.OrderNumber)
	return created, nil
}

func (p *Provider) UpdateCustomer(ctx context.Context, id int64, input *dto.UpdateCustomerInput) (*model.Customer, error) {
	if err := p.store.UpdateCustomer(ctx, id, input); err != nil {
		p.notifier.Failure(ctx, "Customer update failed", err.Error())
		return nil, err
	}

	var updated *model.Customer
	p.patch(func(next *model.Snapshot) {
		customers := make([]model.Customer, len(next.Customers))
		copy(customers, next.Customers)
		for i := range customers {
			if customers[i].ID == id {
				applyCustomerUpdate(&customers[i], input, p.now())
				row := customers[i]
				updated = &row
				break
			}
		}
		next.Customers = customers
	})

	if updated == nil {
		row, err := p.store.CustomerByID(ctx, id)
		if err == nil {
			updated = row
		}
	}

	p.notifier.Success(ctx, "Customer updated", fmt.Sprintf("customer %d updated", id))
	return updated, nil
}

func (p *Provider) AddCustomer(ctx context.Context, input *dto.CreateCustomerInput) (*model.Customer, error) {
	created, err := p.store.InsertCustomer(ctx, input)
	if err != nil {
		p.notifier.Failure(ctx, "Customer creation failed", err.Error())
		return nil, err
	}

	p.patch(func(next *model.Snapshot) {
		customers := make([]model.Customer, 0, len(next.Customers)+1)
		customers = append(customers, *created)
		customers = append(customers, next.Customers...)
		next.Customers = customers
	})

	p.notifier.Success(ctx, "Customer added", created.Name)
	return created, nil
}

// UpdateSetting writes through to the remote store. Settings are not part of
// the snapshot, so there is nothing to patch locally.
func (p *Provider) UpdateSetting(ctx context.Context, key string, value []byte) error {
	if err := p.store.UpsertSetting(ctx, key, value); err != nil {
		p.notifier.Failure(ctx, "Setting update failed", err.Error())
		return err
	}
	p.notifier.Success(ctx, "Setting updated", key)
	return nil
}

// AdjustStock changes a variant's stock and reserved quantities under a
// per-variant lock, records the movement, and patches the cached variant.
func (p *Provider) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.ProductVariant, error) {
	if p.locks != nil {
		lockKey := fmt.Sprintf("lock:stock:%d", input.ProductVariantID)
		lockValue := uuid.New().String()

		acquired := false
		for i := 0; i < 3; i++ {
			ok, err := p.locks.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
			if err != nil {
				p.logger.Error("failed to acquire stock lock", zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(100 * time.Millisecond) // wait before retry
		}
		if !acquired {
			err := errors.New("stock busy, please try again later")
			p.notifier.Failure(ctx, "Stock adjustment failed", err.Error())
			return nil, err
		}
		defer p.locks.ReleaseLock(ctx, lockKey, lockValue)
	}

	variant, err := p.store.VariantByID(ctx, input.ProductVariantID)
	if err != nil {
		p.notifier.Failure(ctx, "Stock adjustment failed", err.Error())
		return nil, err
	}
	if variant == nil {
		err := fmt.Errorf("variant %d not found", input.ProductVariantID)
		p.notifier.Failure(ctx, "Stock adjustment failed", err.Error())
		return nil, err
	}

	before := variant.StockQuantity
	variant.StockQuantity += input.QuantityChange
	variant.ReservedQuantity += input.ReservedChange

	if variant.StockQuantity < 0 || variant.ReservedQuantity < 0 ||
		variant.ReservedQuantity > variant.StockQuantity {
		p.notifier.Failure(ctx, "Stock adjustment failed", ErrInsufficientStock.Error())
		return nil, ErrInsufficientStock
	}

	var createdBy *string
	if input.UserID != "" {
		userID := input.UserID
		createdBy = &userID
	}
	movement := &model.InventoryMovement{
		ID:               uuid.New().String(),
		ProductVariantID: variant.ID,
		MovementType:     "adjustment",
		QuantityChange:   input.QuantityChange,
		QuantityBefore:   before,
		QuantityAfter:    variant.StockQuantity,
		ReferenceType:    input.ReferenceType,
		ReferenceID:      input.ReferenceID,
		Notes:            input.Reason,
		CreatedBy:        createdBy,
		CreatedAt:        p.now(),
	}

	if err := p.store.AdjustVariantStock(ctx, variant, movement); err != nil {
		p.notifier.Failure(ctx, "Stock adjustment failed", err.Error())
		return nil, err
	}

	p.patch(func(next *model.Snapshot) {
		next.Products = replaceVariant(next.Products, *variant)
	})

	p.notifier.Success(ctx, "Stock adjusted",
		fmt.Sprintf("variant %d: %d -> %d", variant.ID, before, variant.StockQuantity))
	return variant, nil
}

// Targeted patches used by the change listener. They never touch the remote
// store; unknown rows surface ErrNotCached so the listener can fall back to a
// full refresh.

func (p *Provider) InsertCachedProduct(row model.Product) {
	p.patch(func(next *model.Snapshot) {
		products := make([]model.Product, 0, len(next.Products)+1)
		products = append(products, row)
		products = append(products, next.Products...)
		next.Products = products
	})
}

func (p *Provider) MergeCachedProduct(row model.Product) error {
	found := false
	p.patch(func(next *model.Snapshot) {
		products := make([]model.Product, len(next.Products))
		copy(products, next.Products)
		for i := range products {
			if products[i].ID == row.ID {
				// Change events carry the bare row; keep the expanded data.
				row.Variants = products[i].Variants
				row.CategoryName = products[i].CategoryName
				products[i] = row
				found = true
				break
			}
		}
		next.Products = products
	})
	if !found {
		return ErrNotCached
	}
	return nil
}

func (p *Provider) RemoveCachedProduct(id int64) {
	p.patch(func(next *model.Snapshot) {
		products := make([]model.Product, 0, len(next.Products))
		for _, pr := range next.Products {
			if pr.ID != id {
				products = append(products, pr)
			}
		}
		next.Products = products
	})
	if p.indexer != nil {
		go p.indexer.Remove(context.Background(), id)
	}
}

func (p *Provider) MergeCachedOrder(row model.Order) error {
	found := false
	p.patch(func(next *model.Snapshot) {
		orders := make([]model.Order, len(next.Orders))
		copy(orders, next.Orders)
		for i := range orders {
			if orders[i].ID == row.ID {
				row.Items = orders[i].Items
				orders[i] = row
				found = true
				break
			}
		}
		next.Orders = orders
	})
	if !found {
		return ErrNotCached
	}
	return nil
}

func (p *Provider) RemoveCachedOrder(id int64) {
	p.patch(func(next *model.Snapshot) {
		orders := make([]model.Order, 0, len(next.Orders))
		for _, o := range next.Orders {
			if o.ID != id {
				orders = append(orders, o)
			}
		}
		next.Orders = orders
	})
}

func (p *Provider) InsertCachedCustomer(row model.Customer) {
	p.patch(func(next *model.Snapshot) {
		customers := make([]model.Customer, 0, len(next.Customers)+1)
		customers = append(customers, row)
		customers = append(customers, next.Customers...)
		next.Customers = customers
	})
}

func (p *Provider) MergeCachedCustomer(row model.Customer) error {
	found := false
	p.patch(func(next *model.Snapshot) {
		customers := make([]model.Customer, len(next.Customers))
		copy(customers, next.Customers)
		for i := range customers {
			if customers[i].ID == row.ID {
				customers[i] = row
				found = true
				break
			}
		}
		next.Customers = customers
	})
	if !found {
		return ErrNotCached
	}
	return nil
}

func (p *Provider) RemoveCachedCustomer(id int64) {
	p.patch(func(next *model.Snapshot) {
		customers := make([]model.Customer, 0, len(next.Customers))
		for _, c := range next.Customers {
			if c.ID != id {
				customers = append(customers, c)
			}
		}
		next.Customers = customers
	})
}

func replaceVariant(products []model.Product, variant model.ProductVariant) []model.Product {
	out := make([]model.Product, len(products))
	copy(out, products)
	for i := range out {
		if out[i].ID != variant.ProductID {
			continue
		}
		variants := make([]model.ProductVariant, len(out[i].Variants))
		copy(variants, out[i].Variants)
		for j := range variants {
			if variants[j].ID == variant.ID {
				variants[j] = variant
				break
			}
		}
		out[i].Variants = variants
		break
	}
	return out
}

func applyProductUpdate(p *model.Product, input *dto.UpdateProductInput, now time.Time) {
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.SKU != nil {
		p.SKU = input.SKU
	}
	if input.Barcode != nil {
		p.Barcode = input.Barcode
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.CategoryID != nil {
		p.CategoryID = input.CategoryID
	}
	if input.BasePrice != nil {
		p.BasePrice = *input.BasePrice
	}
	if input.CostPrice != nil {
		p.CostPrice = input.CostPrice
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = now
}

func applyOrderUpdate(o *model.Order, input *dto.UpdateOrderInput, now time.Time) {
	if input.Status != nil {
		o.Status = *input.Status
	}
	if input.PaymentStatus != nil {
		o.PaymentStatus = input.PaymentStatus
	}
	if input.TrackingNumber != nil {
		o.TrackingNumber = input.TrackingNumber
	}
	if input.Notes != nil {
		o.Notes = input.Notes
	}
	if input.IsArchived != nil {
		o.IsArchived = *input.IsArchived
	}
	if input.AssignedTo != nil {
		o.AssignedTo = input.AssignedTo
	}
	if input.Discount != nil {
		o.Discount = *input.Discount
	}
	if input.TotalAmount != nil {
		o.TotalAmount = *input.TotalAmount
	}
	o.UpdatedAt = now
}

func applyCustomerUpdate(c *model.Customer, input *dto.UpdateCustomerInput, now time.Time) {
	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.Phone != nil {
		c.Phone = *input.Phone
	}
	if input.Email != nil {
		c.Email = input.Email
	}
	if input.Address != nil {
		c.Address = input.Address
	}
	if input.City != nil {
		c.City = input.City
	}
	if input.Province != nil {
		c.Province = input.Province
	}
	if input.LoyaltyPoints != nil {
		c.LoyaltyPoints = *input.LoyaltyPoints
	}
	if input.LoyaltyTier != nil {
		c.LoyaltyTier = input.LoyaltyTier
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}
	c.UpdatedAt = now
}
