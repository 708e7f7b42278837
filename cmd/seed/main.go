// Package main seeds a database with demo catalog data: branches, price
// types, suppliers and products with opening stock and branch prices.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"inventra/internal/app"
	"inventra/internal/app/bootstrap"
	"inventra/internal/config"
	appctx "inventra/internal/core/context"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/supplier"
	"inventra/internal/domain/documents/purchase"
	"inventra/pkg/logger"
)

type productSeed struct {
	name    string
	barcode string
	cost    string
	retail  string
	opening int64
}

var demoProducts = []productSeed{
	{"Basmati Rice 5kg", "4600000000017", "7.40", "9.99", 120},
	{"Sunflower Oil 1L", "4600000000024", "2.10", "2.89", 200},
	{"Black Tea 100 bags", "4600000000031", "3.05", "4.49", 80},
	{"Wheat Flour 2kg", "4600000000048", "1.20", "1.79", 150},
	{"Granulated Sugar 1kg", "4600000000055", "0.95", "1.35", 0},
}

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := appctx.WithActor(context.Background(), &appctx.Actor{UserID: "seed"})
	rt, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open engine", "error", err)
	}
	defer rt.Close()

	existing, err := rt.Services.Products.List(ctx, domain.ListFilter{Limit: 1})
	if err != nil {
		log.Fatalw("failed to inspect products", "error", err)
	}
	if existing.TotalCount > 0 {
		log.Infow("database already holds products, skipping seed", "products", existing.TotalCount)
		return
	}

	if err := seedDemoData(ctx, rt.Services, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, svc *app.Services, log *logger.Logger) error {
	var branches []*branch.Branch
	for _, b := range []struct{ name, address string }{
		{"Riverside", "12 River Rd"},
		{"Old Town", "3 Market Sq"},
	} {
		br := branch.NewBranch(b.name, b.address)
		if err := svc.Branches.Create(ctx, br); err != nil {
			return fmt.Errorf("create branch %q: %w", b.name, err)
		}
		branches = append(branches, br)
	}

	retail := pricetype.NewPriceType("Retail", "shelf price")
	if err := svc.PriceTypes.Create(ctx, retail); err != nil {
		return fmt.Errorf("create price type: %w", err)
	}
	wholesale := pricetype.NewPriceType("Wholesale", "bulk buyers")
	if err := svc.PriceTypes.Create(ctx, wholesale); err != nil {
		return fmt.Errorf("create price type: %w", err)
	}

	sp := supplier.NewSupplier("Acme Wholesale", "555-0100")
	if err := svc.Suppliers.Create(ctx, sp); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}

	var restock []purchase.Item
	for _, ps := range demoProducts {
		retailPrice := types.MustMoney(ps.retail)
		in := product.Input{
			Name:           ps.name,
			Barcode:        &ps.barcode,
			PurchasePrice:  types.MustMoney(ps.cost),
			AlertThreshold: 10,
			OpeningStock:   ps.opening,
		}
		for _, br := range branches {
			in.Branches = append(in.Branches, product.BranchSettings{
				BranchID:       br.ID,
				AlertThreshold: 5,
				Status:         domain.StatusActive,
				Prices: []product.PriceInput{
					{PriceTypeID: retail.ID, Price: retailPrice},
					{PriceTypeID: wholesale.ID, Price: retailPrice.Mul(types.MustMoney("0.9")).Round(2)},
				},
			})
		}

		p, err := svc.Products.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("create product %q: %w", ps.name, err)
		}
		if ps.opening == 0 {
			restock = append(restock, purchase.Item{ProductID: p.ID, Quantity: 40, UnitPrice: p.PurchasePrice})
		}
		log.Infow("product seeded", "name", p.Name, "id", p.ID, "stock", p.Stock)
	}

	if len(restock) > 0 {
		receipts, err := svc.Purchases.Create(ctx, purchase.CreateInput{
			SupplierID:   sp.ID,
			PurchaseDate: time.Now().UTC(),
			Status:       purchase.StatusOrdered,
			Mode:         purchase.ModeOnCredit,
			Notes:        "demo restock",
			Items:        restock,
		})
		if err != nil {
			return fmt.Errorf("create restock purchase: %w", err)
		}
		log.Infow("restock purchase ordered", "receipts", receipts)
	}
	return nil
}
