package models

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    int64              `bson:"user_id"`
	ProductID int64              `bson:"product_id"`
	Quantity  int                `bson:"quantity"`
}

func cartKey(userID, productID int64) bson.M {
	return bson.M{"user_id": userID, "product_id": productID}
}

// InsertCartLine relies on the unique (user_id, product_id) index: a second
// line for the same pair fails with ErrDuplicate.
func (m *MongoDB) InsertCartLine(ctx context.Context, line CartLine) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	_, err := m.Carts.InsertOne(ctx, cartDoc{
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	})
	return mongoErr(err)
}

func (m *MongoDB) GetCartLine(ctx context.Context, userID, productID int64) (CartLine, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var d cartDoc
	if err := m.Carts.FindOne(ctx, cartKey(userID, productID)).Decode(&d); err != nil {
		return CartLine{}, mongoErr(err)
	}
	return CartLine{UserID: d.UserID, ProductID: d.ProductID, Quantity: d.Quantity}, nil
}

func (m *MongoDB) UpdateCartQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := m.Carts.UpdateOne(ctx, cartKey(userID, productID), bson.M{"$set": bson.M{"quantity": quantity}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

func (m *MongoDB) DeleteCartLine(ctx context.Context, userID, productID int64) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := m.Carts.DeleteOne(ctx, cartKey(userID, productID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

func (m *MongoDB) ListCartLines(ctx context.Context, userID int64) ([]CartLineView, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "product_id",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
	}
	cur, err := m.Carts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		Quantity int        `bson:"quantity"`
		Product  productDoc `bson:"product"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	lines := make([]CartLineView, 0, len(docs))
	for _, d := range docs {
		p, err := d.Product.product()
		if err != nil {
			return nil, err
		}
		lines = append(lines, CartLineView{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			ImagePath:   p.ImagePath,
			Stock:       p.Stock,
			Quantity:    d.Quantity,
			Price:       p.Price,
		})
	}
	return lines, nil
}

func (m *MongoDB) CartProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"product_id": 1})
	cur, err := m.Carts.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []int64
	for cur.Next(ctx) {
		var d cartDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		ids = append(ids, d.ProductID)
	}
	return ids, cur.Err()
}
