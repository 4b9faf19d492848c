package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

var alice = models.Identity{UserID: 7, RoleID: models.RoleCustomer, Authenticated: true}

func newLedger(t *testing.T) (*Ledger, *models.MemoryDB) {
	t.Helper()
	db := models.NewMemoryDB()
	db.AddProduct(models.Product{ID: 1, Name: "Kettle", Price: decimal.RequireFromString("19.99"), Stock: 4})
	db.AddProduct(models.Product{ID: 2, Name: "Teapot", Price: decimal.RequireFromString("5.50"), Stock: 1})
	logger, _ := logtest.NewNullLogger()
	return New(db, logrus.NewEntry(logger)), db
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes non-positive quantity", func(t *testing.T) {
		for _, q := range []int{0, -3} {
			l, db := newLedger(t)
			require.NoError(t, l.Add(ctx, alice, 1, q))
			line, err := db.GetCartLine(ctx, alice.UserID, 1)
			require.NoError(t, err)
			assert.Equal(t, 1, line.Quantity)
		}
	})

	t.Run("keeps positive quantity", func(t *testing.T) {
		l, db := newLedger(t)
		require.NoError(t, l.Add(ctx, alice, 1, 3))
		line, err := db.GetCartLine(ctx, alice.UserID, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, line.Quantity)
	})

	t.Run("missing product", func(t *testing.T) {
		l, _ := newLedger(t)
		err := l.Add(ctx, alice, 99, 1)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("existing line conflicts and leaves the cart alone", func(t *testing.T) {
		l, db := newLedger(t)
		require.NoError(t, l.Add(ctx, alice, 1, 2))

		err := l.Add(ctx, alice, 1, 5)
		assert.Equal(t, models.KindConflict, models.KindOf(err))
		assert.True(t, errors.Is(err, models.ErrDuplicate))

		line, err := db.GetCartLine(ctx, alice.UserID, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("anonymous", func(t *testing.T) {
		l, _ := newLedger(t)
		err := l.Add(ctx, models.Identity{}, 1, 1)
		assert.Equal(t, models.KindUnauthorized, models.KindOf(err))
	})
}

// racingLines hides existing lines from the lookup, as if another request
// inserted the same line between lookup and insert.
type racingLines struct {
	*models.MemoryDB
}

func (racingLines) GetCartLine(context.Context, int64, int64) (models.CartLine, error) {
	return models.CartLine{}, models.ErrNoRecord
}

func TestAddStorageConflict(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	l.Lines = racingLines{MemoryDB: db}

	require.NoError(t, l.Add(ctx, alice, 1, 1))
	err := l.Add(ctx, alice, 1, 1)
	assert.Equal(t, models.KindConflict, models.KindOf(err))

	ids, err := db.CartProductIDs(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

// deletedOwner rejects inserts the way a relational store does once the
// token holder's account is gone.
type deletedOwner struct {
	*models.MemoryDB
}

func (deletedOwner) InsertCartLine(context.Context, models.CartLine) error {
	return fmt.Errorf("%w: cart_user_id_fkey", models.ErrUnknownUser)
}

func TestAddDeletedAccount(t *testing.T) {
	l, db := newLedger(t)
	l.Lines = deletedOwner{MemoryDB: db}

	err := l.Add(context.Background(), alice, 1, 1)
	assert.Equal(t, models.KindUnauthorized, models.KindOf(err))
	assert.Equal(t, "account no longer exists", models.MessageOf(err))
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	require.NoError(t, l.Add(ctx, alice, 1, 1))

	for _, q := range []int{5, 0, -2} {
		require.NoError(t, l.UpdateQuantity(ctx, alice, 1, q))
		line, err := db.GetCartLine(ctx, alice.UserID, 1)
		require.NoError(t, err)
		assert.Equal(t, q, line.Quantity)
	}

	err := l.UpdateQuantity(ctx, alice, 2, 1)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	err = l.UpdateQuantity(ctx, models.Identity{}, 1, 1)
	assert.Equal(t, models.KindUnauthorized, models.KindOf(err))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	require.NoError(t, l.Add(ctx, alice, 1, 1))
	require.NoError(t, l.Add(ctx, alice, 2, 1))

	require.NoError(t, l.Remove(ctx, alice, 1))

	err := l.Remove(ctx, alice, 1)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	ids, err := db.CartProductIDs(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	bob := models.Identity{UserID: 8, Authenticated: true}

	lines, err := l.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotNil(t, lines)

	require.NoError(t, l.Add(ctx, alice, 2, 2))
	require.NoError(t, l.Add(ctx, alice, 1, 3))
	require.NoError(t, l.Add(ctx, bob, 1, 1))

	lines, err = l.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, int64(2), lines[0].ProductID)
	assert.Equal(t, "Teapot", lines[0].Name)
	assert.Equal(t, "11.00", lines[0].Total.StringFixed(2))

	assert.Equal(t, int64(1), lines[1].ProductID)
	assert.Equal(t, 4, lines[1].Stock)
	assert.Equal(t, "59.97", lines[1].Total.StringFixed(2))

	assert.Equal(t, "70.97", GrandTotal(lines).StringFixed(2))

	_, err = l.List(ctx, models.Identity{})
	assert.Equal(t, models.KindUnauthorized, models.KindOf(err))
}

func TestProductIDs(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	require.NoError(t, l.Add(ctx, alice, 2, 1))

	ids, err := l.ProductIDs(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{2: true}, ids)

	ids, err = l.ProductIDs(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
