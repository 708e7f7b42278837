// Package app wires repositories into the engine services.
package app

import (
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/domain/audit"
	"inventra/internal/domain/catalogs"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/supplier"
	"inventra/internal/domain/documents/purchase"
	"inventra/internal/domain/documents/transfer"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/domain/registers/stock"
)

// Repositories groups the storage ports.
type Repositories struct {
	Branches   branch.Repository
	PriceTypes pricetype.Repository
	Suppliers  supplier.Repository
	Products   product.Repository
	Stock      stock.Repository
	Prices     prices.Repository
	Purchases  purchase.Repository
	Transfers  transfer.Repository
}

// Deps is everything the services need.
type Deps struct {
	Repos      Repositories
	TxManager  tx.Manager
	Numerator  numerator.Generator
	Audit      audit.Recorder
	PriceCache prices.Cache // optional

	PurchaseOptions []purchase.Option
	TransferOptions []transfer.Option
}

// Services is the engine.
type Services struct {
	Branches   *branch.Service
	PriceTypes *pricetype.Service
	Suppliers  *supplier.Service
	Products   *product.Service
	Stock      *stock.Service
	Prices     *prices.Service
	Purchases  *purchase.Service
	Transfers  *transfer.Service
}

// NewServices builds the engine services.
func NewServices(d Deps) *Services {
	rec := d.Audit
	if rec == nil {
		rec = audit.Nop{}
	}
	r := d.Repos

	branches := branch.NewService(r.Branches, d.TxManager, rec)
	priceTypes := pricetype.NewService(r.PriceTypes, d.TxManager, rec)
	suppliers := supplier.NewService(r.Suppliers, d.TxManager, rec)
	lookup := catalogs.NewLookup(r.Products, branches, priceTypes, suppliers)

	ledger := stock.NewService(r.Stock, lookup, d.TxManager)

	var cache prices.Cache
	if d.PriceCache != nil {
		cache = d.PriceCache
	}
	priceSvc := prices.NewService(r.Prices, lookup, cache, d.TxManager, rec)

	return &Services{
		Branches:   branches,
		PriceTypes: priceTypes,
		Suppliers:  suppliers,
		Products:   product.NewService(r.Products, ledger, priceSvc, branches, d.TxManager, rec),
		Stock:      ledger,
		Prices:     priceSvc,
		Purchases:  purchase.NewService(r.Purchases, lookup, ledger, d.Numerator, d.TxManager, rec, d.PurchaseOptions...),
		Transfers:  transfer.NewService(r.Transfers, lookup, ledger, d.TxManager, rec, d.TransferOptions...),
	}
}
