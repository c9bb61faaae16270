package handler

import (
	ledgerapp "github.com/craftledger/backend/internal/application/ledger"
	"github.com/craftledger/backend/internal/domain/shared"
	"github.com/craftledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client-supplied append dedup key
const IdempotencyKeyHeader = "Idempotency-Key"

// LedgerHandler handles ledger transaction endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// RegisterRoutes registers ledger routes on the given group
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	ledger.POST("/transactions", h.Append)
	ledger.GET("/transactions", h.Query)
	ledger.GET("/transactions/:id", h.Get)
	ledger.POST("/transactions/:id/void", h.Void)

	items := rg.Group("/items")
	items.GET("/:id/stock", h.Stock)
	items.POST("/:id/recompute", h.Recompute)

	reports := rg.Group("/reports")
	reports.GET("/low-stock", h.LowStock)
}

// Append records a stock movement as a new ledger row
func (h *LedgerHandler) Append(c *gin.Context) {
	var req ledgerapp.AppendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
	resp, err := h.ledgerService.Append(c.Request.Context(), middleware.GetActor(c), idempotencyKey, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// Query returns the tenant's ledger history, newest first
func (h *LedgerHandler) Query(c *gin.Context) {
	var req ledgerapp.QueryTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.ledgerService.Query(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns a single transaction with its derived void state
func (h *LedgerHandler) Get(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	resp, err := h.ledgerService.GetTransaction(c.Request.Context(), middleware.GetActor(c), txID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Void appends a compensating entry that reverses a transaction
func (h *LedgerHandler) Void(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var req ledgerapp.VoidTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.ledgerService.Void(c.Request.Context(), middleware.GetActor(c), txID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Stock reports the cached stock position for one item
func (h *LedgerHandler) Stock(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	stock, lowStock, err := h.ledgerService.ItemStock(c.Request.Context(), middleware.GetActor(c), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"item_id":       itemID,
		"current_stock": stock,
		"low_stock":     lowStock,
	})
}

// Recompute rebuilds an item's cached stock from the ledger sum
func (h *LedgerHandler) Recompute(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	resp, err := h.ledgerService.Recompute(c.Request.Context(), middleware.GetActor(c), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LowStock lists active items at or below their reorder point
func (h *LedgerHandler) LowStock(c *gin.Context) {
	filter := shared.DefaultFilter()
	var req struct {
		Page     int `form:"page,default=1"`
		PageSize int `form:"page_size,default=20"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 && req.PageSize <= 100 {
		filter.PageSize = req.PageSize
	}

	page, err := h.ledgerService.LowStockReport(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
