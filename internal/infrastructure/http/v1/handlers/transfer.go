package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/domain/documents/transfer"
	"inventra/internal/infrastructure/http/v1/dto"
)

// TransferHandler exposes stock transfers to branches.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers transfer routes.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:ref", h.Get)
	rg.PATCH("/:ref/status", h.SetStatus)
	rg.DELETE("/:ref", h.Delete)
}

// Create handles POST /transfers.
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	t, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.metrics.DocumentRecorded("transfer", "create", string(t.Status), movedUnits(t))
	h.Created(c, dto.FromTransfer(t))
}

// Get handles GET /transfers/:ref. A line id is accepted in place of the code.
func (h *TransferHandler) Get(c *gin.Context) {
	t, err := h.service.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTransfer(t))
}

// List handles GET /transfers.
func (h *TransferHandler) List(c *gin.Context) {
	var q dto.TransferListQuery
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
	items := make([]dto.TransferResponse, 0, len(res.Items))
	for _, t := range res.Items {
		items = append(items, dto.FromTransfer(t))
	}
	h.OK(c, dto.ListResponse[dto.TransferResponse]{
		Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset,
	})
}

// SetStatus handles PATCH /transfers/:ref/status.
func (h *TransferHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.SetStatus(c.Request.Context(), c.Param("ref"), transfer.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.metrics.DocumentRecorded("transfer", "set_status", string(t.Status), movedUnits(t))
	h.OK(c, dto.FromTransfer(t))
}

// Delete handles DELETE /transfers/:ref.
func (h *TransferHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("ref")); err != nil {
		h.Error(c, err)
		return
	}
	h.metrics.DocumentRecorded("transfer", "delete", "", 0)
	h.NoContent(c)
}

func movedUnits(t *transfer.Transfer) int64 {
	if t.Status != transfer.StatusReceived {
		return 0
	}
	return t.TotalQuantity()
}
