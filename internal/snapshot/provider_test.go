package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/rawnaqshop/dashboard-service/internal/store/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore counts remote calls and lets tests inject per-entity failures.
type fakeStore struct {
	mu    sync.Mutex
	calls int

	products  []model.Product
	customers []model.Customer
	orders    []model.Order
	profits   []model.Profit
	profiles  []model.Profile
	variants  map[int64]model.ProductVariant

	failOrders     error
	failUpdate     error
	failStockWrite error
}

func (f *fakeStore) bump() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeStore) Departments(ctx context.Context) ([]model.Department, error) {
	f.bump()
	return nil, nil
}

func (f *fakeStore) Categories(ctx context.Context) ([]model.Category, error) {
	f.bump()
	return nil, nil
}

func (f *fakeStore) Colors(ctx context.Context) ([]model.Color, error) { f.bump(); return nil, nil }
func (f *fakeStore) Sizes(ctx context.Context) ([]model.Size, error)  { f.bump(); return nil, nil }

func (f *fakeStore) Products(ctx context.Context) ([]model.Product, error) {
	f.bump()
	return f.products, nil
}

func (f *fakeStore) Customers(ctx context.Context) ([]model.Customer, error) {
	f.bump()
	return f.customers, nil
}

func (f *fakeStore) Orders(ctx context.Context) ([]model.Order, error) {
	f.bump()
	if f.failOrders != nil {
		return nil, f.failOrders
	}
	return f.orders, nil
}

func (f *fakeStore) Profits(ctx context.Context) ([]model.Profit, error) {
	f.bump()
	return f.profits, nil
}

func (f *fakeStore) Profiles(ctx context.Context) ([]model.Profile, error) {
	f.bump()
	return f.profiles, nil
}

func (f *fakeStore) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			row := f.products[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) VariantByID(ctx context.Context, id int64) (*model.ProductVariant, error) {
	if v, ok := f.variants[id]; ok {
		row := v
		return &row, nil
	}
	return nil, nil
}

func (f *fakeStore) OrderByID(ctx context.Context, id int64) (*model.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			row := f.orders[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	for i := range f.customers {
		if f.customers[i].ID == id {
			row := f.customers[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	return nil, nil
}

func (f *fakeStore) InsertProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	return &model.Product{ID: 999, Name: input.Name, BasePrice: input.BasePrice, IsActive: true}, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, id int64, input *dto.UpdateProductInput) error {
	return f.failUpdate
}

func (f *fakeStore) InsertOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	return &model.Order{ID: 888, OrderNumber: "ORD-TEST", CustomerName: input.CustomerName}, nil
}

func (f *fakeStore) UpdateOrder(ctx context.Context, id int64, input *dto.UpdateOrderInput) error {
	return f.failUpdate
}

func (f *fakeStore) InsertCustomer(ctx context.Context, input *dto.CreateCustomerInput) (*model.Customer, error) {
	return &model.Customer{ID: 777, Name: input.Name, Phone: input.Phone}, nil
}

func (f *fakeStore) UpdateCustomer(ctx context.Context, id int64, input *dto.UpdateCustomerInput) error {
	return f.failUpdate
}

func (f *fakeStore) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	return nil
}

func (f *fakeStore) AdjustVariantStock(ctx context.Context, variant *model.ProductVariant, movement *model.InventoryMovement) error {
	if f.failStockWrite != nil {
		return f.failStockWrite
	}
	f.variants[variant.ID] = *variant
	return nil
}

func (f *fakeStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	return nil
}

// fakeNotifier records delivered titles.
type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *fakeNotifier) Success(ctx context.Context, title, message string) {
	n.mu.Lock()
	n.successes = append(n.successes, title)
	n.mu.Unlock()
}

func (n *fakeNotifier) Failure(ctx context.Context, title, message string) {
	n.mu.Lock()
	n.failures = append(n.failures, title)
	n.mu.Unlock()
}

func newTestProvider(st *fakeStore) (*Provider, *fakeNotifier) {
	notifier := &fakeNotifier{}
	p := NewProvider(st, NewCache(), nil, nil, notifier, zap.NewNop(), 5*time.Minute)
	return p, notifier
}

func TestProvider_FetchServesFreshCacheWithoutRemoteCalls(t *testing.T) {
	st := &fakeStore{products: []model.Product{{ID: 1, Name: "shirt"}}}
	p, _ := newTestProvider(st)

	first, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, first.Products, 1)
	assert.Equal(t, 9, st.callCount(), "one bulk fetch issues all entity queries")

	second, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 9, st.callCount(), "fresh cache hit must not touch the store")
}

func TestProvider_ForcedFetchBypassesTTL(t *testing.T) {
	st := &fakeStore{}
	p, _ := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 18, st.callCount())
}

func TestProvider_FailedFetchKeepsPriorSnapshot(t *testing.T) {
	st := &fakeStore{orders: []model.Order{{ID: 1}}}
	p, notifier := newTestProvider(st)

	first, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, p.Err())

	st.failOrders = errors.New("orders query timed out")
	_, err = p.Fetch(context.Background(), true)
	require.Error(t, err)
	assert.ErrorContains(t, p.Err(), "orders query timed out")
	assert.NotEmpty(t, notifier.failures)

	// The partial result was discarded; the previous snapshot still serves.
	current, ok := p.Current()
	require.True(t, ok)
	assert.Same(t, first, current)

	// The next success clears the sticky error.
	st.failOrders = nil
	_, err = p.Fetch(context.Background(), true)
	require.NoError(t, err)
	assert.NoError(t, p.Err())
}

func TestProvider_AddProductPatchIsVisibleWithoutRemoteRead(t *testing.T) {
	st := &fakeStore{products: []model.Product{{ID: 1, Name: "shirt"}}}
	p, notifier := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)
	calls := st.callCount()

	created, err := p.AddProduct(context.Background(), &dto.CreateProductInput{Name: "jacket"})
	require.NoError(t, err)
	require.NotNil(t, created)

	current, ok := p.Current()
	require.True(t, ok)
	require.Len(t, current.Products, 2)
	assert.Equal(t, "jacket", current.Products[0].Name, "new rows go to the front")
	assert.Equal(t, calls, st.callCount(), "patch must not refetch")
	assert.Contains(t, notifier.successes, "Product added")
}

func TestProvider_MutationInvalidatesTTL(t *testing.T) {
	st := &fakeStore{products: []model.Product{{ID: 1, Name: "shirt"}}}
	p, _ := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	name := "renamed"
	_, err = p.UpdateProduct(context.Background(), 1, &dto.UpdateProductInput{Name: &name})
	require.NoError(t, err)

	// The patched row serves synchronously.
	current, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "renamed", current.Products[0].Name)

	// But the entry is no longer fresh: the next normal fetch goes remote.
	calls := st.callCount()
	_, err = p.Fetch(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, calls+9, st.callCount())
}

func TestProvider_FailedMutationLeavesCacheUntouched(t *testing.T) {
	st := &fakeStore{products: []model.Product{{ID: 1, Name: "shirt"}}}
	p, notifier := newTestProvider(st)

	before, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	st.failUpdate = errors.New("row violates constraint")
	name := "renamed"
	_, err = p.UpdateProduct(context.Background(), 1, &dto.UpdateProductInput{Name: &name})
	require.Error(t, err)

	current, ok := p.Current()
	require.True(t, ok)
	assert.Same(t, before, current)
	assert.Equal(t, "shirt", current.Products[0].Name)
	assert.Contains(t, notifier.failures, "Product update failed")
}

func TestProvider_AdjustStockUpdatesCachedVariant(t *testing.T) {
	variant := model.ProductVariant{ID: 10, ProductID: 1, SKU: "SH-RED-M", StockQuantity: 8, ReservedQuantity: 2}
	st := &fakeStore{
		products: []model.Product{{ID: 1, Name: "shirt", Variants: []model.ProductVariant{variant}}},
		variants: map[int64]model.ProductVariant{10: variant},
	}
	p, _ := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	got, err := p.AdjustStock(context.Background(), &dto.AdjustStockInput{
		ProductVariantID: 10,
		QuantityChange:   -3,
		Reason:           "damaged in transit",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)

	current, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, 5, current.Products[0].Variants[0].StockQuantity)
	assert.Equal(t, 5, st.variants[10].StockQuantity)
}

func TestProvider_AdjustStockRejectsInsufficientStock(t *testing.T) {
	variant := model.ProductVariant{ID: 10, ProductID: 1, StockQuantity: 2}
	st := &fakeStore{
		products: []model.Product{{ID: 1, Variants: []model.ProductVariant{variant}}},
		variants: map[int64]model.ProductVariant{10: variant},
	}
	p, notifier := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	_, err = p.AdjustStock(context.Background(), &dto.AdjustStockInput{
		ProductVariantID: 10,
		QuantityChange:   -5,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, notifier.failures, "Stock adjustment failed")

	// Neither the store nor the cache moved.
	assert.Equal(t, 2, st.variants[10].StockQuantity)
	current, _ := p.Current()
	assert.Equal(t, 2, current.Products[0].Variants[0].StockQuantity)
}

func TestProvider_StalePublishDoesNotClobberNewerPatch(t *testing.T) {
	st := &fakeStore{customers: []model.Customer{{ID: 1, Name: "amira"}}}
	p, _ := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	// Simulate a refresh that reserved its version before the patch landed.
	staleVersion := p.cache.NextVersion()

	p.InsertCachedCustomer(model.Customer{ID: 2, Name: "karim"})

	stale := &model.Snapshot{
		Version:   staleVersion,
		Customers: []model.Customer{{ID: 1, Name: "amira"}},
	}
	assert.False(t, p.cache.Publish(stale, time.Now()))

	current, ok := p.Current()
	require.True(t, ok)
	assert.Len(t, current.Customers, 2)
}

func TestProvider_ConcurrentPatchesAreNotLost(t *testing.T) {
	st := &fakeStore{}
	p, _ := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			p.InsertCachedCustomer(model.Customer{ID: id})
		}(int64(i + 1))
	}
	wg.Wait()

	current, ok := p.Current()
	require.True(t, ok)
	assert.Len(t, current.Customers, n, "every successful patch must survive concurrent patches")
}

func TestProvider_UpdateOrderHydratesWhenNotCached(t *testing.T) {
	st := &fakeStore{orders: []model.Order{{ID: 5, OrderNumber: "ORD-250601-AAAA", Status: model.OrderStatusPending}}}
	p, _ := newTestProvider(st)

	// Nothing cached: the patch is a no-op, so the row comes from the store.
	status := model.OrderStatusCompleted
	got, err := p.UpdateOrder(context.Background(), 5, &dto.UpdateOrderInput{Status: &status})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, "ORD-250601-AAAA", got.OrderNumber)
}

func TestProvider_UpdateCustomerHydratesWhenNotCached(t *testing.T) {
	st := &fakeStore{customers: []model.Customer{{ID: 7, Name: "amira"}}}
	p, _ := newTestProvider(st)

	name := "amira k"
	got, err := p.UpdateCustomer(context.Background(), 7, &dto.UpdateCustomerInput{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
}

func TestProvider_UpdateStampsInjectedClock(t *testing.T) {
	st := &fakeStore{products: []model.Product{{ID: 1, Name: "shirt"}}}
	p, _ := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	fixed := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	name := "renamed"
	updated, err := p.UpdateProduct(context.Background(), 1, &dto.UpdateProductInput{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.UpdatedAt.Equal(fixed))
}

func TestProvider_MergeCachedProductKeepsExpandedData(t *testing.T) {
	category := "Clothing"
	st := &fakeStore{products: []model.Product{{
		ID:           1,
		Name:         "shirt",
		CategoryName: &category,
		Variants:     []model.ProductVariant{{ID: 10, ProductID: 1, StockQuantity: 4}},
	}}}
	p, _ := newTestProvider(st)

	_, err := p.Fetch(context.Background(), false)
	require.NoError(t, err)

	// Change events carry the bare table row, no variants or joined names.
	err = p.MergeCachedProduct(model.Product{ID: 1, Name: "linen shirt"})
	require.NoError(t, err)

	current, _ := p.Current()
	assert.Equal(t, "linen shirt", current.Products[0].Name)
	require.Len(t, current.Products[0].Variants, 1)
	assert.Equal(t, &category, current.Products[0].CategoryName)

	assert.ErrorIs(t, p.MergeCachedProduct(model.Product{ID: 42}), ErrNotCached)
}
