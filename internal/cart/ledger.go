// Package cart maintains each user's cart: one line per product, with
// quantities and line totals computed from catalog prices.
package cart

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

// Ledger applies cart rules on top of a models.Store.
type Ledger struct {
	Products models.ProductStore
	Lines    models.CartStore
	Log      *logrus.Entry
}

func New(store models.Store, log *logrus.Entry) *Ledger {
	return &Ledger{Products: store, Lines: store, Log: log}
}

func requireUser(id models.Identity) error {
	if !id.Authenticated || id.UserID == 0 {
		return models.Unauthorized("authentication required")
	}
	return nil
}

// Add creates a new line. A non-positive quantity is stored as 1.
func (l *Ledger) Add(ctx context.Context, id models.Identity, productID int64, quantity int) error {
	if err := requireUser(id); err != nil {
		return err
	}

	if _, err := l.Products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			return models.NotFound("product %d not found", productID)
		}
		return err
	}

	_, err := l.Lines.GetCartLine(ctx, id.UserID, productID)
	switch {
	case err == nil:
		return models.Conflict(models.ErrDuplicate, "product %d is already in the cart", productID)
	case !errors.Is(err, models.ErrNoRecord):
		return err
	}

	if quantity <= 0 {
		quantity = 1
	}
	err = l.Lines.InsertCartLine(ctx, models.CartLine{UserID: id.UserID, ProductID: productID, Quantity: quantity})
	switch {
	case errors.Is(err, models.ErrDuplicate):
		return models.Conflict(err, "product %d is already in the cart", productID)
	case errors.Is(err, models.ErrUnknownUser):
		return models.Unauthorized("account no longer exists")
	case errors.Is(err, models.ErrNoRecord):
		return models.NotFound("product %d not found", productID)
	case err != nil:
		return err
	}

	l.Log.WithFields(logrus.Fields{"user_id": id.UserID, "product_id": productID, "quantity": quantity}).Info("cart line added")
	return nil
}

// UpdateQuantity overwrites the quantity of an existing line. Unlike Add it
// stores the value as given, zero and negative included.
func (l *Ledger) UpdateQuantity(ctx context.Context, id models.Identity, productID int64, quantity int) error {
	if err := requireUser(id); err != nil {
		return err
	}

	err := l.Lines.UpdateCartQuantity(ctx, id.UserID, productID, quantity)
	if errors.Is(err, models.ErrNoRecord) {
		return models.NotFound("product %d is not in the cart", productID)
	}
	if err != nil {
		return err
	}

	l.Log.WithFields(logrus.Fields{"user_id": id.UserID, "product_id": productID, "quantity": quantity}).Info("cart line updated")
	return nil
}

func (l *Ledger) Remove(ctx context.Context, id models.Identity, productID int64) error {
	if err := requireUser(id); err != nil {
		return err
	}

	err := l.Lines.DeleteCartLine(ctx, id.UserID, productID)
	if errors.Is(err, models.ErrNoRecord) {
		return models.NotFound("product %d is not in the cart", productID)
	}
	if err != nil {
		return err
	}

	l.Log.WithFields(logrus.Fields{"user_id": id.UserID, "product_id": productID}).Info("cart line removed")
	return nil
}

// List returns the caller's lines in insertion order with line totals.
func (l *Ledger) List(ctx context.Context, id models.Identity) ([]models.CartLineView, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}

	lines, err := l.Lines.ListCartLines(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.CartLineView{}
	}
	for i := range lines {
		lines[i].Total = LineTotal(lines[i].Price, lines[i].Quantity)
	}
	return lines, nil
}

// ProductIDs returns the set of products in the user's cart.
func (l *Ledger) ProductIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	ids, err := l.Lines.CartProductIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
