package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/domain/documents/purchase"
	"inventra/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler exposes purchase intake.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers purchase routes.
func (h *PurchaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:receipt", h.Get)
	rg.PATCH("/:receipt/status", h.SetStatus)
	rg.DELETE("/:receipt", h.Delete)
}

// Create handles POST /purchases.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	receipts, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	var units int64
	if in.Status == purchase.StatusReceived {
		for _, item := range in.Items {
			units += item.Quantity
		}
	}
	h.metrics.DocumentRecorded("purchase", "create", string(in.Status), units)

	h.Created(c, dto.CreatePurchaseResponse{ReceiptNumbers: receipts})
}

// Get handles GET /purchases/:receipt.
func (h *PurchaseHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("receipt"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchase(p))
}

// List handles GET /purchases.
func (h *PurchaseHandler) List(c *gin.Context) {
	var q dto.PurchaseListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]dto.PurchaseResponse, 0, len(res.Items))
	for _, p := range res.Items {
		items = append(items, dto.FromPurchase(p))
	}
	h.OK(c, dto.ListResponse[dto.PurchaseResponse]{
		Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset,
	})
}

// SetStatus handles PATCH /purchases/:receipt/status.
func (h *PurchaseHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.SetStatus(c.Request.Context(), c.Param("receipt"), purchase.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	var units int64
	if p.Status == purchase.StatusReceived {
		units = p.Quantity
	}
	h.metrics.DocumentRecorded("purchase", "set_status", string(p.Status), units)
	h.OK(c, dto.FromPurchase(p))
}

// Delete handles DELETE /purchases/:receipt.
func (h *PurchaseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("receipt")); err != nil {
		h.Error(c, err)
		return
	}
	h.metrics.DocumentRecorded("purchase", "delete", "", 0)
	h.NoContent(c)
}
