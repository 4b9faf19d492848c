// Package catalog builds product listings enriched with review statistics
// and, for signed-in callers, cart membership.
package catalog

import (
	"context"
	"errors"

	"storefront/internal/models"
)

type Ratings interface {
	Aggregates(ctx context.Context, productIDs []int64) (map[int64]models.ReviewAggregate, error)
}

type Carts interface {
	ProductIDs(ctx context.Context, userID int64) (map[int64]bool, error)
}

type Aggregator struct {
	Products models.ProductStore
	Ratings  Ratings
	Carts    Carts
}

// List filters, searches and sorts products in storage, attaches review
// aggregates, and marks products already in the caller's cart. The cart pass
// keeps the order and membership of the first pass.
func (a *Aggregator) List(ctx context.Context, q models.ProductQuery, id models.Identity) ([]models.ProductView, error) {
	products, err := a.Products.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	aggregates, err := a.Ratings.Aggregates(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ProductView, len(products))
	for i, p := range products {
		if p.ImagePath == "" {
			p.ImagePath = models.DefaultImagePath
		}
		agg := aggregates[p.ID]
		views[i] = models.ProductView{
			Product:       p,
			ReviewCount:   agg.Count,
			AverageRating: agg.Average,
			Rated:         agg.Rated,
		}
	}

	if !id.Authenticated || id.UserID == 0 {
		return views, nil
	}

	inCart, err := a.Carts.ProductIDs(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].IsInCart = inCart[views[i].ID]
	}
	return views, nil
}

// Product returns one product with its review aggregate.
func (a *Aggregator) Product(ctx context.Context, productID int64) (models.ProductView, error) {
	p, err := a.Products.GetProduct(ctx, productID)
	if errors.Is(err, models.ErrNoRecord) {
		return models.ProductView{}, models.NotFound("product %d not found", productID)
	}
	if err != nil {
		return models.ProductView{}, err
	}
	aggregates, err := a.Ratings.Aggregates(ctx, []int64{p.ID})
	if err != nil {
		return models.ProductView{}, err
	}
	agg := aggregates[p.ID]
	return models.ProductView{Product: p, ReviewCount: agg.Count, AverageRating: agg.Average, Rated: agg.Rated}, nil
}

func (a *Aggregator) Count(ctx context.Context) (int64, error) {
	return a.Products.CountProducts(ctx)
}
