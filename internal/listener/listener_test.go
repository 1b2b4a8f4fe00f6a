package listener

import (
	"context"
	"testing"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider records which patch paths the listener took.
type fakeProvider struct {
	refreshes int

	insertedProducts []model.Product
	mergedProducts   []model.Product
	removedProducts  []int64
	mergedOrders     []model.Order
	removedOrders    []int64
	insertedCusts    []model.Customer
	mergedCusts      []model.Customer
	removedCusts     []int64

	mergeErr error
}

func (f *fakeProvider) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeProvider) InsertCachedProduct(row model.Product) {
	f.insertedProducts = append(f.insertedProducts, row)
}

func (f *fakeProvider) MergeCachedProduct(row model.Product) error {
	f.mergedProducts = append(f.mergedProducts, row)
	return f.mergeErr
}

func (f *fakeProvider) RemoveCachedProduct(id int64) {
	f.removedProducts = append(f.removedProducts, id)
}

func (f *fakeProvider) MergeCachedOrder(row model.Order) error {
	f.mergedOrders = append(f.mergedOrders, row)
	return f.mergeErr
}

func (f *fakeProvider) RemoveCachedOrder(id int64) {
	f.removedOrders = append(f.removedOrders, id)
}

func (f *fakeProvider) InsertCachedCustomer(row model.Customer) {
	f.insertedCusts = append(f.insertedCusts, row)
}

func (f *fakeProvider) MergeCachedCustomer(row model.Customer) error {
	f.mergedCusts = append(f.mergedCusts, row)
	return f.mergeErr
}

func (f *fakeProvider) RemoveCachedCustomer(id int64) {
	f.removedCusts = append(f.removedCusts, id)
}

func newTestListener(p *fakeProvider) *Listener {
	return NewListener(nil, p, zap.NewNop())
}

func TestHandle_ProductInsertPatchesWithoutRefresh(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"products","type":"INSERT","new":{"id":7,"name":"jacket"}}`))

	require.Len(t, p.insertedProducts, 1)
	assert.Equal(t, int64(7), p.insertedProducts[0].ID)
	assert.Equal(t, 0, p.refreshes)
}

func TestHandle_ProductUpdateMerges(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"products","type":"UPDATE","new":{"id":7,"name":"renamed"}}`))

	require.Len(t, p.mergedProducts, 1)
	assert.Equal(t, "renamed", p.mergedProducts[0].Name)
	assert.Equal(t, 0, p.refreshes)
}

func TestHandle_ProductDeleteUsesOldRow(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"products","type":"DELETE","old":{"id":7}}`))

	assert.Equal(t, []int64{7}, p.removedProducts)
	assert.Equal(t, 0, p.refreshes)
}

func TestHandle_OrderInsertForcesExactlyOneRefresh(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"orders","type":"INSERT","new":{"id":3}}`))

	assert.Equal(t, 1, p.refreshes)
	assert.Empty(t, p.mergedOrders)
}

func TestHandle_OrderUpdateMergesWithoutRefresh(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"orders","type":"UPDATE","new":{"id":3,"status":"completed"}}`))

	require.Len(t, p.mergedOrders, 1)
	assert.Equal(t, "completed", p.mergedOrders[0].Status)
	assert.Equal(t, 0, p.refreshes)
}

func TestHandle_MergeMissFallsBackToRefresh(t *testing.T) {
	p := &fakeProvider{mergeErr: ErrNeedsRefresh}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"customers","type":"UPDATE","new":{"id":9}}`))

	require.Len(t, p.mergedCusts, 1)
	assert.Equal(t, 1, p.refreshes)
}

func TestHandle_CustomerEvents(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"customers","type":"INSERT","new":{"id":9,"name":"amira"}}`))
	l.handle(context.Background(), []byte(`{"table":"customers","type":"DELETE","old":{"id":9}}`))

	require.Len(t, p.insertedCusts, 1)
	assert.Equal(t, "amira", p.insertedCusts[0].Name)
	assert.Equal(t, []int64{9}, p.removedCusts)
	assert.Equal(t, 0, p.refreshes)
}

func TestHandle_UnknownTableRefreshes(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`{"table":"inventory_movements","type":"INSERT","new":{"id":1}}`))

	assert.Equal(t, 1, p.refreshes)
}

func TestHandle_GarbagePayloadRefreshes(t *testing.T) {
	p := &fakeProvider{}
	l := newTestListener(p)

	l.handle(context.Background(), []byte(`not json`))

	assert.Equal(t, 1, p.refreshes)
}
