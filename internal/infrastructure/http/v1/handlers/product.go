package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/app"
	"inventra/internal/core/id"
	"inventra/internal/infrastructure/http/v1/dto"
)

// ProductHandler exposes products with their stock pools and price matrix.
type ProductHandler struct {
	*BaseHandler
	services *app.Services
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, services *app.Services) *ProductHandler {
	return &ProductHandler{BaseHandler: base, services: services}
}

// RegisterRoutes registers product routes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.PUT("/:id/prices", h.UpsertPrice)
	rg.GET("/:id/prices/:branchId", h.ListPrices)
	rg.GET("/:id/stock", h.MainStock)
	rg.GET("/:id/stock/:branchId", h.BranchStock)
}

// Create handles POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.services.Products.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respondProduct(c, p.ID, true)
}

// Update handles PUT /products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	if _, err := h.services.Products.Update(c.Request.Context(), productID, in); err != nil {
		h.Error(c, err)
		return
	}
	h.respondProduct(c, productID, false)
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	h.respondProduct(c, productID, false)
}

func (h *ProductHandler) respondProduct(c *gin.Context, productID id.ID, created bool) {
	ctx := c.Request.Context()
	p, err := h.services.Products.Get(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	rows, err := h.services.Products.BranchProducts(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := dto.ProductResponse{Product: p, Branches: rows}
	if created {
		h.Created(c, resp)
		return
	}
	h.OK(c, resp)
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.services.Products.List(c.Request.Context(), q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// UpsertPrice handles PUT /products/:id/prices.
func (h *ProductHandler) UpsertPrice(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpsertPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	branchID, err := id.ParseField("branch_id", req.BranchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	priceTypeID, err := id.ParseField("price_type_id", req.PriceTypeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	row, err := h.services.Prices.UpsertPrice(c.Request.Context(), productID, branchID, priceTypeID, req.Price)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// ListPrices handles GET /products/:id/prices/:branchId.
// An empty list means no price is set for the pair.
func (h *ProductHandler) ListPrices(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	branchID, ok := h.ParamID(c, "branchId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.services.Products.Get(ctx, productID); err != nil {
		h.Error(c, err)
		return
	}
	rows, err := h.services.Prices.ListPrices(ctx, productID, branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": rows})
}

// MainStock handles GET /products/:id/stock.
func (h *ProductHandler) MainStock(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	qty, err := h.services.Stock.MainStock(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.StockResponse{ProductID: productID.String(), Stock: qty})
}

// BranchStock handles GET /products/:id/stock/:branchId. A product never
// moved to the branch reads 0.
func (h *ProductHandler) BranchStock(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	branchID, ok := h.ParamID(c, "branchId")
	if !ok {
		return
	}

	qty, err := h.services.Stock.BranchStock(c.Request.Context(), productID, branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	bid := branchID.String()
	h.OK(c, dto.StockResponse{ProductID: productID.String(), BranchID: &bid, Stock: qty})
}
