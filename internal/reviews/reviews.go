// Package reviews records product reviews and derives rating statistics.
package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

type Book struct {
	Products models.ProductStore
	Reviews  models.ReviewStore
	Log      *logrus.Entry

	now func() time.Time
}

func New(store models.Store, log *logrus.Entry) *Book {
	return &Book{Products: store, Reviews: store, Log: log, now: time.Now}
}

func (b *Book) product(ctx context.Context, productID int64) (models.Product, error) {
	p, err := b.Products.GetProduct(ctx, productID)
	if errors.Is(err, models.ErrNoRecord) {
		return models.Product{}, models.NotFound("product %d not found", productID)
	}
	return p, err
}

// Add stores a review by the calling user. A nil rating means the review is
// not rated yet. Ratings are not range checked.
func (b *Book) Add(ctx context.Context, id models.Identity, productID int64, rating *int, text string) (int64, error) {
	if !id.Authenticated || id.UserID == 0 {
		return 0, models.Unauthorized("authentication required")
	}
	if _, err := b.product(ctx, productID); err != nil {
		return 0, err
	}

	reviewID, err := b.Reviews.InsertReview(ctx, models.Review{
		ProductID: productID,
		UserID:    id.UserID,
		Rating:    rating,
		Text:      text,
		CreatedAt: b.now().UTC(),
	})
	switch {
	case errors.Is(err, models.ErrUnknownUser):
		return 0, models.Unauthorized("account no longer exists")
	case errors.Is(err, models.ErrNoRecord):
		return 0, models.NotFound("product %d not found", productID)
	case err != nil:
		return 0, err
	}

	b.Log.WithFields(logrus.Fields{"user_id": id.UserID, "product_id": productID, "review_id": reviewID}).Info("review added")
	return reviewID, nil
}

// ListForProduct returns the product's reviews in insertion order, each with
// its author's name.
func (b *Book) ListForProduct(ctx context.Context, productID int64) (models.ProductReviews, error) {
	p, err := b.product(ctx, productID)
	if err != nil {
		return models.ProductReviews{}, err
	}

	rows, err := b.Reviews.ListReviews(ctx, productID)
	if err != nil {
		return models.ProductReviews{}, err
	}

	views := make([]models.ReviewView, 0, len(rows))
	for _, r := range rows {
		v := models.ReviewView{
			ID:        r.ID,
			UserID:    r.UserID,
			ProductID: r.ProductID,
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
			FirstName: r.FirstName,
			LastName:  r.LastName,
		}
		if r.Rating != nil {
			v.Rating, v.Rated = *r.Rating, true
		}
		views = append(views, v)
	}

	return models.ProductReviews{ProductID: p.ID, ProductName: p.Name, Reviews: views}, nil
}

func (b *Book) Aggregate(ctx context.Context, productID int64) (models.ReviewAggregate, error) {
	all, err := b.Aggregates(ctx, []int64{productID})
	if err != nil {
		return models.ReviewAggregate{}, err
	}
	return all[productID], nil
}

// Aggregates computes the aggregate of every listed product in one storage
// round trip. Products without ratings map to the zero aggregate.
func (b *Book) Aggregates(ctx context.Context, productIDs []int64) (map[int64]models.ReviewAggregate, error) {
	ratings, err := b.Reviews.RatingsByProduct(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]models.ReviewAggregate, len(productIDs))
	for _, id := range productIDs {
		out[id] = Summarize(ratings[id])
	}
	return out, nil
}

// Summarize derives count and mean of the given ratings. The average of no
// ratings is 0.
func Summarize(ratings []int) models.ReviewAggregate {
	if len(ratings) == 0 {
		return models.ReviewAggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return models.ReviewAggregate{
		Count:   len(ratings),
		Average: float64(sum) / float64(len(ratings)),
		Rated:   true,
	}
}

// SummarizeReviews is Summarize over reviews, skipping unrated ones.
func SummarizeReviews(reviews []models.Review) models.ReviewAggregate {
	var ratings []int
	for _, r := range reviews {
		if r.Rating != nil {
			ratings = append(ratings, *r.Rating)
		}
	}
	return Summarize(ratings)
}
