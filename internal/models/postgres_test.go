package models

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewPostgresDB(sqlx.NewDb(mockDB, "sqlmock")), mock
}

var productRowColumns = []string{"id", "name", "description", "price", "weight", "stock", "category_name", "image_path"}

func TestPostgresListProducts(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM catalog WHERE category_name = $1 AND (strpos(product_name, $2) > 0 OR strpos(COALESCE(description, ''), $2) > 0) ORDER BY price DESC, id",
	)).
		WithArgs("Kitchen", "tea").
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(2, "Teapot", "red clay", "18.50", 450, 5, "Kitchen", "no image").
			AddRow(1, "Kettle", "tea kettle", "10.00", nil, 0, "Kitchen", "/img/k.png"))

	products, err := db.ListProducts(context.Background(), ProductQuery{
		Category: "Kitchen", Search: "tea", Sort: SortPriceDesc,
	})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Teapot", products[0].Name)
	assert.True(t, decimal.RequireFromString("18.5").Equal(products[0].Price))
	require.NotNil(t, products[0].Weight)
	assert.Equal(t, 450, *products[0].Weight)
	assert.Nil(t, products[1].Weight)
	assert.Equal(t, "/img/k.png", products[1].ImagePath)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListProductsUnsorted(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(`FROM catalog ORDER BY id$`).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	products, err := db.ListProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetProductNotFound(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM catalog WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := db.GetProduct(context.Background(), 7)
	assert.True(t, errors.Is(err, ErrNoRecord))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertUserDuplicate(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_phone_key"})

	_, err := db.InsertUser(context.Background(), User{Phone: "89991234567", RoleID: RoleCustomer})
	assert.True(t, errors.Is(err, ErrDuplicate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertUser(t *testing.T) {
	db, mock := newMockPostgres(t)
	registered := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("89991234567", "", "hash", RoleCustomer, "", "", "", registered).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	id, err := db.InsertUser(context.Background(), User{
		Phone: "89991234567", PasswordHash: "hash", RoleID: RoleCustomer, RegisteredAt: registered,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertReviewForeignKeys(t *testing.T) {
	db, mock := newMockPostgres(t)
	five := 5

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "reviews_user_id_fkey"})
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "reviews_product_id_fkey"})

	_, err := db.InsertReview(context.Background(), Review{UserID: 40, ProductID: 1, Rating: &five})
	assert.True(t, errors.Is(err, ErrUnknownUser))
	assert.False(t, errors.Is(err, ErrNoRecord))

	_, err = db.InsertReview(context.Background(), Review{UserID: 1, ProductID: 40, Rating: &five})
	assert.True(t, errors.Is(err, ErrNoRecord))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCart(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart")).
		WithArgs(int64(1), int64(2), 1).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "cart_pkey"})
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart SET quantity = $3")).
		WithArgs(int64(1), int64(9), -1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY c.added_at, c.product_id")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "description", "image_path", "stock", "quantity", "price"}).
			AddRow(2, "Teapot", "", "no image", 5, 3, "18.50"))

	err := db.InsertCartLine(ctx, CartLine{UserID: 1, ProductID: 2, Quantity: 1})
	assert.True(t, errors.Is(err, ErrDuplicate))

	err = db.UpdateCartQuantity(ctx, 1, 9, -1)
	assert.True(t, errors.Is(err, ErrNoRecord))

	require.NoError(t, db.DeleteCartLine(ctx, 1, 2))

	lines, err := db.ListCartLines(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("18.50").Equal(lines[0].Price))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRatingsByProduct(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE rating IS NOT NULL AND product_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "rating"}).
			AddRow(1, 5).AddRow(1, 3).AddRow(2, 4))

	ratings, err := db.RatingsByProduct(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64][]int{1: {5, 3}, 2: {4}}, ratings)
	require.NoError(t, mock.ExpectationsWereMet())

	empty, err := db.RatingsByProduct(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostgresUserExists(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("89991234567", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := db.UserExists(context.Background(), "", "89991234567")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresIntegration runs against a real database when
// TEST_POSTGRES_DSN is set.
func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}
	ctx := context.Background()

	db, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer db.Close(ctx)

	phone := "8" + time.Now().Format("150405000")
	id, err := db.InsertUser(ctx, User{Phone: phone, PasswordHash: "x", RoleID: RoleCustomer, RegisteredAt: time.Now().UTC()})
	require.NoError(t, err)
	_, err = db.InsertUser(ctx, User{Phone: phone, PasswordHash: "x", RoleID: RoleCustomer, RegisteredAt: time.Now().UTC()})
	assert.True(t, errors.Is(err, ErrDuplicate))

	u, err := db.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, phone, u.Phone)

	role, err := db.GetRole(ctx, RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, "customer", role.Name)
}
