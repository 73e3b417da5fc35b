// Command seed-db loads a product catalog JSON file and a starter coupon set
// into the database. Safe to re-run: duplicate slugs and codes are skipped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bazaar-dev/bazaar/internal/domain/coupon"
	"github.com/bazaar-dev/bazaar/internal/domain/product"
	"github.com/bazaar-dev/bazaar/internal/repository"
)

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Images      []struct {
		PublicID string `json:"public_id"`
		URL      string `json:"url"`
	} `json:"images"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		workers      int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.IntVar(&workers, "workers", 8, "concurrent insert workers")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, workers); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string, workers int) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile, workers); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string, workers int) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var items []productJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("inserting products", slog.Int("count", len(items)), slog.Int("workers", workers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, item := range items {
		g.Go(func() error {
			images := make([]product.Image, len(item.Images))
			for i, img := range item.Images {
				images[i] = product.Image{PublicID: img.PublicID, URL: img.URL}
			}

			now := time.Now()
			p := &product.Product{
				ID:          uuid.New().String(),
				Name:        item.Name,
				Slug:        product.Slugify(item.Name),
				Description: item.Description,
				Price:       item.Price,
				Images:      images,
				Category:    product.Category(item.Category),
				Stock:       item.Stock,
				CreatedAt:   now,
				UpdatedAt:   now,
			}

			err := repo.Create(ctx, p)
			switch {
			case errors.Is(err, product.ErrSlugTaken):
				slog.Info("skipped existing product", slog.String("slug", p.Slug))
				return nil
			case err != nil:
				return errors.Wrapf(err, "insert product %q", item.Name)
			}

			slog.Info("inserted product", slog.String("id", p.ID), slog.String("name", p.Name))
			return nil
		})
	}
	return g.Wait()
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	slog.Info("seeding starter coupons")

	now := time.Now()
	coupons := []coupon.Coupon{
		{
			ID:            uuid.New().String(),
			Code:          "WELCOME10",
			DiscountType:  coupon.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			MinCartValue:  decimal.NewFromInt(50),
			ExpiryDate:    now.AddDate(1, 0, 0),
			IsActive:      true,
			CreatedAt:     now,
		},
		{
			ID:            uuid.New().String(),
			Code:          "FLAT50",
			DiscountType:  coupon.DiscountFlat,
			DiscountValue: decimal.NewFromInt(50),
			MinCartValue:  decimal.NewFromInt(200),
			ExpiryDate:    now.AddDate(1, 0, 0),
			IsActive:      true,
			CreatedAt:     now,
		},
	}

	for _, c := range coupons {
		err := repo.Create(ctx, &c)
		switch {
		case errors.Is(err, coupon.ErrCodeExists):
			slog.Info("skipped existing coupon", slog.String("code", c.Code))
			continue
		case err != nil:
			return errors.Wrapf(err, "insert coupon %s", c.Code)
		}

		slog.Info("inserted coupon", slog.String("code", c.Code))
	}
	return nil
}
