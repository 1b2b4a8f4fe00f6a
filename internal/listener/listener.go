// Package listener keeps the snapshot reconciled with the remote store by
// consuming row-change events. Events for the subscribed tables are applied
// as targeted patches; anything the patch path cannot handle falls back to a
// single full forced refresh.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ErrNeedsRefresh marks events whose payload cannot reconstruct the cached
// row shape.
var ErrNeedsRefresh = errors.New("change event requires full refresh")

// ChangeEvent is the row-change payload published by the remote store's
// notification pipeline: the table, the event kind, and the new/old rows.
type ChangeEvent struct {
	Table string          `json:"table"`
	Type  string          `json:"type"`
	New   json.RawMessage `json:"new"`
	Old   json.RawMessage `json:"old"`
}

// Reader is the consuming side of the change-notification channel.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Provider is the slice of the snapshot provider the listener drives.
type Provider interface {
	Refresh(ctx context.Context) error

	InsertCachedProduct(row model.Product)
	MergeCachedProduct(row model.Product) error
	RemoveCachedProduct(id int64)
	MergeCachedOrder(row model.Order) error
	RemoveCachedOrder(id int64)
	InsertCachedCustomer(row model.Customer)
	MergeCachedCustomer(row model.Customer) error
	RemoveCachedCustomer(id int64)
}

type Listener struct {
	reader   Reader
	provider Provider
	logger   *zap.Logger
}

func NewListener(reader Reader, provider Provider, logger *zap.Logger) *Listener {
	return &Listener{
		reader:   reader,
		provider: provider,
		logger:   logger,
	}
}

func (l *Listener) Start(ctx context.Context) {
	l.logger.Info("Starting change listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping change listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read change message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.handle(ctx, msg.Value)
		}
	}
}

func (l *Listener) handle(ctx context.Context, value []byte) {
	var event ChangeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal change event", zap.Error(err))
		l.refresh(ctx)
		return
	}

	if err := l.apply(event); err != nil {
		l.logger.Info("Targeted patch not possible, refreshing",
			zap.String("table", event.Table),
			zap.String("type", event.Type),
			zap.Error(err),
		)
		l.refresh(ctx)
	}
}

// apply patches the snapshot from the event payload. An error means the
// caller must fall back to a full refresh.
func (l *Listener) apply(event ChangeEvent) error {
	switch event.Table {
	case "products":
		switch event.Type {
		case EventInsert:
			var row model.Product
			if err := json.Unmarshal(event.New, &row); err != nil {
				return err
			}
			l.provider.InsertCachedProduct(row)
			return nil
		case EventUpdate:
			var row model.Product
			if err := json.Unmarshal(event.New, &row); err != nil {
				return err
			}
			return l.provider.MergeCachedProduct(row)
		case EventDelete:
			id, err := rowID(event.Old)
			if err != nil {
				return err
			}
			l.provider.RemoveCachedProduct(id)
			return nil
		}

	case "orders":
		switch event.Type {
		case EventInsert:
			// A new order's items arrive through a table we do not subscribe
			// to; only a full fetch yields the complete nested row.
			return ErrNeedsRefresh
		case EventUpdate:
			var row model.Order
			if err := json.Unmarshal(event.New, &row); err != nil {
				return err
			}
			return l.provider.MergeCachedOrder(row)
		case EventDelete:
			id, err := rowID(event.Old)
			if err != nil {
				return err
			}
			l.provider.RemoveCachedOrder(id)
			return nil
		}

	case "customers":
		switch event.Type {
		case EventInsert:
			var row model.Customer
			if err := json.Unmarshal(event.New, &row); err != nil {
				return err
			}
			l.provider.InsertCachedCustomer(row)
			return nil
		case EventUpdate:
			var row model.Customer
			if err := json.Unmarshal(event.New, &row); err != nil {
				return err
			}
			return l.provider.MergeCachedCustomer(row)
		case EventDelete:
			id, err := rowID(event.Old)
			if err != nil {
				return err
			}
			l.provider.RemoveCachedCustomer(id)
			return nil
		}
	}

	return ErrNeedsRefresh
}

func (l *Listener) refresh(ctx context.Context) {
	if err := l.provider.Refresh(ctx); err != nil {
		l.logger.Error("Forced refresh after change event failed", zap.Error(err))
	}
}

func rowID(raw json.RawMessage) (int64, error) {
	var row struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return 0, err
	}
	return row.ID, nil
}
