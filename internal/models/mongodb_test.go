package models

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMongo(t *testing.T) *MongoDB {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongo integration test")
	}

	ctx := context.Background()
	name := "storefront_test_" + uuid.NewString()[:8]
	db, err := OpenMongo(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Products.Database().Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func TestMongoStore(t *testing.T) {
	db := newTestMongo(t)
	ctx := context.Background()

	kettle, err := db.InsertProduct(ctx, Product{Name: "Kettle", Description: "steel", Price: decimal.RequireFromString("30.00"), Category: "Kitchen"})
	require.NoError(t, err)
	teapot, err := db.InsertProduct(ctx, Product{Name: "Teapot", Description: "red clay", Price: decimal.RequireFromString("10.50"), Category: "Kitchen"})
	require.NoError(t, err)

	p, err := db.GetProduct(ctx, kettle)
	require.NoError(t, err)
	assert.Equal(t, DefaultImagePath, p.ImagePath)
	assert.True(t, decimal.RequireFromString("30").Equal(p.Price))

	asc, err := db.ListProducts(ctx, ProductQuery{Category: "Kitchen", Sort: SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, teapot, asc[0].ID)

	found, err := db.ListProducts(ctx, ProductQuery{Search: "red"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, teapot, found[0].ID)

	uid, err := db.InsertUser(ctx, User{Phone: "89991234567", FirstName: "Ivan", RoleID: RoleCustomer, RegisteredAt: time.Now().UTC()})
	require.NoError(t, err)
	_, err = db.InsertUser(ctx, User{Phone: "89991234567", RoleID: RoleCustomer})
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = db.InsertUser(ctx, User{Phone: "89990000000", RoleID: RoleCustomer})
	require.NoError(t, err, "missing emails do not collide")

	four := 4
	_, err = db.InsertReview(ctx, Review{ProductID: kettle, UserID: uid, Rating: &four, Text: "ok", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	reviews, err := db.ListReviews(ctx, kettle)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Ivan", reviews[0].FirstName)

	require.NoError(t, db.InsertCartLine(ctx, CartLine{UserID: uid, ProductID: kettle, Quantity: 1}))
	assert.True(t, errors.Is(db.InsertCartLine(ctx, CartLine{UserID: uid, ProductID: kettle, Quantity: 1}), ErrDuplicate))
	assert.True(t, errors.Is(db.DeleteCartLine(ctx, uid, teapot), ErrNoRecord))

	lines, err := db.ListCartLines(ctx, uid)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Kettle", lines[0].Name)

	role, err := db.GetRole(ctx, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", role.Name)
}
