package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rawnaqshop/dashboard-service/internal/access"
	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/rawnaqshop/dashboard-service/internal/search"
	"github.com/rawnaqshop/dashboard-service/internal/snapshot"
	"github.com/rawnaqshop/dashboard-service/internal/stats"
	"github.com/rawnaqshop/dashboard-service/internal/store/dto"
	"go.uber.org/zap"
)

// Searcher is the text-search surface, matched by search.ProductIndex; nil
// means snapshot-only search.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.Product, error)
}

type Handler struct {
	provider  *snapshot.Provider
	searcher  Searcher
	logger    *zap.Logger
	statsOpts stats.Options
}

func NewHandler(provider *snapshot.Provider, searcher Searcher, logger *zap.Logger, opts stats.Options) *Handler {
	return &Handler{
		provider:  provider,
		searcher:  searcher,
		logger:    logger,
		statsOpts: opts,
	}
}

// view fetches (honoring the TTL), falls back to the stale cached snapshot on
// fetch failure, and applies the viewer's row filter.
func (h *Handler) view(c *gin.Context) (*model.Snapshot, bool) {
	snap, err := h.provider.Fetch(c.Request.Context(), false)
	if err != nil {
		if cached, ok := h.provider.Current(); ok {
			snap = cached
		} else {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return nil, false
		}
	}
	return access.Filter(snap, viewerFrom(c)), true
}

func (h *Handler) errMessage() *string {
	if err := h.provider.Err(); err != nil {
		msg := err.Error()
		return &msg
	}
	return nil
}

func (h *Handler) GetDashboard(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	opts := h.statsOpts
	opts.Now = time.Now()

	c.JSON(http.StatusOK, gin.H{
		"products":      view.Products,
		"orders":        view.Orders,
		"customers":     view.Customers,
		"departments":   view.Departments,
		"categories":    view.Categories,
		"colors":        view.Colors,
		"sizes":         view.Sizes,
		"profits":       view.Profits,
		"calculations":  stats.Compute(view, opts),
		"top_products":  stats.TopProducts(view, 5),
		"top_customers": stats.TopCustomers(view, 5),
		"last_updated":  view.FetchedAt,
		"version":       view.Version,
		"error":         h.errMessage(),
	})
}

func (h *Handler) GetProducts(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": view.Products, "error": h.errMessage()})
}

func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	view, ok := h.view(c)
	if !ok {
		return
	}

	if h.searcher != nil {
		products, err := h.searcher.Search(c.Request.Context(), query, limit)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"products": products, "source": "index"})
			return
		}
		// Fall through to the snapshot on index failure.
		h.logger.Error("index search failed, falling back to snapshot", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"products": search.FilterSnapshot(view.Products, query, limit),
		"source":   "snapshot",
	})
}

func (h *Handler) GetOrders(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": view.Orders, "error": h.errMessage()})
}

func (h *Handler) GetCustomers(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": view.Customers, "error": h.errMessage()})
}

func (h *Handler) GetProfits(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"profits": view.Profits, "error": h.errMessage()})
}

func (h *Handler) GetCatalog(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"departments": view.Departments,
		"categories":  view.Categories,
		"colors":      view.Colors,
		"sizes":       view.Sizes,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	if err := h.provider.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	snap, _ := h.provider.Current()
	c.JSON(http.StatusOK, gin.H{"last_updated": snap.FetchedAt, "version": snap.Version})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var input dto.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stampCreator(&input.CreatedBy, c)

	product, err := h.provider.AddProduct(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input dto.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.provider.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var input dto.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stampCreator(&input.CreatedBy, c)

	order, err := h.provider.AddOrder(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input dto.UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.provider.UpdateOrder(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var input dto.CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stampCreator(&input.CreatedBy, c)

	customer, err := h.provider.AddCustomer(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input dto.UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.provider.UpdateCustomer(c.Request.Context(), id, &input)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")
	var value json.RawMessage
	if err := c.ShouldBindJSON(&value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.provider.UpdateSetting(c.Request.Context(), key, value); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (h *Handler) AdjustStock(c *gin.Context) {
	var input dto.AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if viewer := viewerFrom(c); viewer.UserID != "" {
		input.UserID = viewer.UserID
	}

	variant, err := h.provider.AdjustStock(c.Request.Context(), &input)
	if err != nil {
		status := http.StatusBadGateway
		if err == snapshot.ErrInsufficientStock {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, variant)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func stampCreator(target **string, c *gin.Context) {
	if viewer := viewerFrom(c); viewer.UserID != "" {
		userID := viewer.UserID
		*target = &userID
	}
}
