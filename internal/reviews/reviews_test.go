package reviews

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func intp(v int) *int { return &v }

func newBook(t *testing.T) (*Book, *models.MemoryDB) {
	t.Helper()
	db := models.NewMemoryDB()
	db.AddProduct(models.Product{ID: 1, Name: "Kettle", Price: decimal.RequireFromString("19.99")})
	db.AddProduct(models.Product{ID: 2, Name: "Teapot", Price: decimal.RequireFromString("5.50")})
	logger, _ := logtest.NewNullLogger()
	b := New(db, logrus.NewEntry(logger))
	b.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return b, db
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		reviews []models.Review
		want    models.ReviewAggregate
	}{
		{"none", nil, models.ReviewAggregate{}},
		{"only unrated", []models.Review{{}, {}}, models.ReviewAggregate{}},
		{
			"skips unrated",
			[]models.Review{{Rating: intp(5)}, {Rating: intp(3)}, {}, {Rating: intp(4)}},
			models.ReviewAggregate{Count: 3, Average: 4, Rated: true},
		},
		{
			"zero rating counts",
			[]models.Review{{Rating: intp(0)}},
			models.ReviewAggregate{Count: 1, Average: 0, Rated: true},
		},
		{
			"fractional mean",
			[]models.Review{{Rating: intp(4)}, {Rating: intp(5)}},
			models.ReviewAggregate{Count: 2, Average: 4.5, Rated: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeReviews(tt.reviews))
		})
	}
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	alice := models.Identity{UserID: 3, Authenticated: true}

	t.Run("anonymous", func(t *testing.T) {
		b, db := newBook(t)
		_, err := b.Add(ctx, models.Identity{}, 1, intp(5), "great")
		assert.Equal(t, models.KindUnauthorized, models.KindOf(err))

		rows, err := db.ListReviews(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("missing product", func(t *testing.T) {
		b, _ := newBook(t)
		_, err := b.Add(ctx, alice, 42, intp(5), "great")
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("stamps author and time", func(t *testing.T) {
		b, db := newBook(t)
		id, err := b.Add(ctx, alice, 1, intp(11), "loud")
		require.NoError(t, err)
		assert.NotZero(t, id)

		rows, err := db.ListReviews(ctx, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, alice.UserID, rows[0].UserID)
		assert.Equal(t, 11, *rows[0].Rating)
		assert.Equal(t, b.now().UTC(), rows[0].CreatedAt)
	})
}

type deletedAuthor struct {
	*models.MemoryDB
}

func (deletedAuthor) InsertReview(context.Context, models.Review) (int64, error) {
	return 0, fmt.Errorf("%w: reviews_user_id_fkey", models.ErrUnknownUser)
}

func TestAddDeletedAccount(t *testing.T) {
	b, db := newBook(t)
	b.Reviews = deletedAuthor{MemoryDB: db}

	_, err := b.Add(context.Background(), models.Identity{UserID: 3, Authenticated: true}, 1, intp(5), "gone")
	assert.Equal(t, models.KindUnauthorized, models.KindOf(err))
	assert.Equal(t, "account no longer exists", models.MessageOf(err))
}

func TestListForProduct(t *testing.T) {
	ctx := context.Background()
	b, db := newBook(t)

	uid, err := db.InsertUser(ctx, models.User{Phone: "89991234567", FirstName: "Ivan", LastName: "Petrov"})
	require.NoError(t, err)
	author := models.Identity{UserID: uid, Authenticated: true}

	_, err = b.Add(ctx, author, 1, intp(5), "first")
	require.NoError(t, err)
	_, err = b.Add(ctx, author, 2, intp(1), "other product")
	require.NoError(t, err)
	_, err = b.Add(ctx, author, 1, nil, "second")
	require.NoError(t, err)

	got, err := b.ListForProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ProductID)
	assert.Equal(t, "Kettle", got.ProductName)
	require.Len(t, got.Reviews, 2)

	assert.Equal(t, "first", got.Reviews[0].Text)
	assert.Equal(t, 5, got.Reviews[0].Rating)
	assert.True(t, got.Reviews[0].Rated)
	assert.Equal(t, "Ivan", got.Reviews[0].FirstName)
	assert.Equal(t, "Petrov", got.Reviews[0].LastName)

	assert.Equal(t, "second", got.Reviews[1].Text)
	assert.Equal(t, 0, got.Reviews[1].Rating)
	assert.False(t, got.Reviews[1].Rated)

	_, err = b.ListForProduct(ctx, 99)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	empty, err := b.ListForProduct(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, empty.Reviews, 1)
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	b, _ := newBook(t)
	author := models.Identity{UserID: 3, Authenticated: true}

	agg, err := b.Aggregate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewAggregate{}, agg)

	for _, r := range []*int{intp(5), intp(3), nil, intp(4)} {
		_, err := b.Add(ctx, author, 1, r, "")
		require.NoError(t, err)
	}

	agg, err = b.Aggregate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewAggregate{Count: 3, Average: 4, Rated: true}, agg)

	all, err := b.Aggregates(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, all[1].Count)
	assert.Equal(t, models.ReviewAggregate{}, all[2])
}
