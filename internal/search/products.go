// Package search keeps a product index in Elasticsearch in step with product
// writes and serves text queries against it. The index is an accelerator, not
// an authority: callers fall back to filtering the cached snapshot when the
// index is unavailable.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/rawnaqshop/dashboard-service/pkg/search"
	"go.uber.org/zap"
)

const productIndex = "products"

const productMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"description": { "type": "text" },
			"sku": { "type": "keyword" },
			"barcode": { "type": "keyword" },
			"base_price": { "type": "double" },
			"is_active": { "type": "boolean" },
			"created_at": { "type": "date" }
		}
	}
}`

type ProductIndex struct {
	client *search.Client
	logger *zap.Logger
}

func NewProductIndex(client *search.Client, logger *zap.Logger) *ProductIndex {
	return &ProductIndex{client: client, logger: logger}
}

// Sync indexes one product. Safe to call from a goroutine; failures are
// logged, never propagated to the mutation that triggered them.
func (i *ProductIndex) Sync(ctx context.Context, p *model.Product) {
	if err := i.client.CreateIndex(ctx, productIndex, productMapping); err != nil {
		i.logger.Error("failed to ensure product index", zap.Error(err))
		return
	}
	if err := i.client.Index(ctx, productIndex, search.DocID(p.ID), p); err != nil {
		i.logger.Error("failed to index product", zap.Int64("id", p.ID), zap.Error(err))
	}
}

func (i *ProductIndex) Remove(ctx context.Context, id int64) {
	if err := i.client.Delete(ctx, productIndex, search.DocID(id)); err != nil {
		i.logger.Error("failed to delete product from index", zap.Int64("id", id), zap.Error(err))
	}
}

func (i *ProductIndex) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", query),
				"fields": []string{"name^3", "sku", "barcode", "description"},
			},
		},
	}
	if limit > 0 {
		q["size"] = limit
	}

	res, err := i.client.Search(ctx, productIndex, q)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// FilterSnapshot is the fallback: a case-insensitive substring match over the
// cached products, same fields the index queries.
func FilterSnapshot(products []model.Product, query string, limit int) []model.Product {
	needle := strings.ToLower(query)
	out := make([]model.Product, 0)
	for _, p := range products {
		if matches(&p, needle) {
			out = append(out, p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

func matches(p *model.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	if p.SKU != nil && strings.Contains(strings.ToLower(*p.SKU), needle) {
		return true
	}
	if p.Barcode != nil && strings.Contains(strings.ToLower(*p.Barcode), needle) {
		return true
	}
	if p.Description != nil && strings.Contains(strings.ToLower(*p.Description), needle) {
		return true
	}
	return false
}
