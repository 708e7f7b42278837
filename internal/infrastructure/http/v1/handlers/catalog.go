package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/supplier"
	"inventra/internal/infrastructure/http/v1/dto"
)

// BranchHandler exposes the branch catalog.
type BranchHandler struct {
	*BaseHandler
	service *branch.Service
}

// NewBranchHandler creates a new branch handler.
func NewBranchHandler(base *BaseHandler, service *branch.Service) *BranchHandler {
	return &BranchHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers branch routes.
func (h *BranchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Rename)
	rg.DELETE("/:id", h.Delete)
}

// Create handles POST /branches.
func (h *BranchHandler) Create(c *gin.Context) {
	var req dto.BranchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// Get handles GET /branches/:id.
func (h *BranchHandler) Get(c *gin.Context) {
	branchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.GetByID(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// List handles GET /branches.
func (h *BranchHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.service.List(c.Request.Context(), q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Rename handles PATCH /branches/:id. The main branch keeps its name.
func (h *BranchHandler) Rename(c *gin.Context) {
	branchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.BranchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.Rename(c.Request.Context(), branchID, req.Name, req.Address)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Delete handles DELETE /branches/:id.
func (h *BranchHandler) Delete(c *gin.Context) {
	branchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), branchID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// PriceTypeHandler exposes the price type catalog.
type PriceTypeHandler struct {
	*BaseHandler
	service *pricetype.Service
}

// NewPriceTypeHandler creates a new price type handler.
func NewPriceTypeHandler(base *BaseHandler, service *pricetype.Service) *PriceTypeHandler {
	return &PriceTypeHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers price type routes.
func (h *PriceTypeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.DELETE("/:id", h.Delete)
}

// Create handles POST /price-types.
func (h *PriceTypeHandler) Create(c *gin.Context) {
	var req dto.PriceTypeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pt := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), pt); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, pt)
}

// List handles GET /price-types.
func (h *PriceTypeHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.service.List(c.Request.Context(), q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Delete handles DELETE /price-types/:id. Types still quoted fail with CONFLICT.
func (h *PriceTypeHandler) Delete(c *gin.Context) {
	priceTypeID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), priceTypeID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// SupplierHandler exposes the supplier catalog.
type SupplierHandler struct {
	*BaseHandler
	service *supplier.Service
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers supplier routes.
func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
}

// Create handles POST /suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sp := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), sp); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sp)
}

// Get handles GET /suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	sp, err := h.service.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sp)
}

// List handles GET /suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.service.List(c.Request.Context(), q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Delete handles DELETE /suppliers/:id. Suppliers referenced by purchases fail with CONFLICT.
func (h *SupplierHandler) Delete(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), supplierID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
