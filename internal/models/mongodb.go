package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

type MongoDB struct {
	client   *mongo.Client
	Products *mongo.Collection
	Reviews  *mongo.Collection
	Users    *mongo.Collection
	Carts    *mongo.Collection
	Roles    *mongo.Collection
	Counters *mongo.Collection
}

var _ Store = (*MongoDB)(nil)

// OpenMongo connects to uri, verifies the connection and makes sure the
// unique indexes the core relies on exist.
func OpenMongo(ctx context.Context, uri, database string) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(database)
	m := &MongoDB{
		client:   client,
		Products: db.Collection("products"),
		Reviews:  db.Collection("reviews"),
		Users:    db.Collection("users"),
		Carts:    db.Collection("cart"),
		Roles:    db.Collection("roles"),
		Counters: db.Collection("counters"),
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

// EnsureIndexes creates the uniqueness constraints for cart lines and user
// contacts and seeds the fixed roles.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	_, err := m.Carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("cart index: %w", err)
	}

	_, err = m.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}

	_, err = m.Reviews.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "product_id", Value: 1}}})
	if err != nil {
		return fmt.Errorf("review index: %w", err)
	}

	for id, name := range map[int]string{RoleAdmin: "admin", RoleCustomer: "customer"} {
		_, err := m.Roles.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$setOnInsert": bson.M{"name": name}}, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := m.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	return doc.Seq, err
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNoRecord
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// --- products ---

type productDoc struct {
	ID          int64                `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
	Weight      *int                 `bson:"weight,omitempty"`
	Stock       int                  `bson:"stock"`
	Category    string               `bson:"category_name,omitempty"`
	ImagePath   string               `bson:"image_path,omitempty"`
}

func (d productDoc) product() (Product, error) {
	price, err := decimalFrom128(d.Price)
	if err != nil {
		return Product{}, fmt.Errorf("product %d price: %w", d.ID, err)
	}
	p := Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Weight:      d.Weight,
		Stock:       d.Stock,
		Category:    d.Category,
		ImagePath:   d.ImagePath,
	}
	if p.ImagePath == "" {
		p.ImagePath = DefaultImagePath
	}
	return p, nil
}

func decimalFrom128(d primitive.Decimal128) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(d.String())
}

func decimalTo128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.StringFixed(2))
}

// InsertProduct stores p under a fresh id. Used for seeding; the core never
// writes products.
func (m *MongoDB) InsertProduct(ctx context.Context, p Product) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	price, err := decimalTo128(p.Price)
	if err != nil {
		return 0, err
	}
	id, err := m.nextID(ctx, "products")
	if err != nil {
		return 0, err
	}
	_, err = m.Products.InsertOne(ctx, productDoc{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Weight:      p.Weight,
		Stock:       p.Stock,
		Category:    p.Category,
		ImagePath:   p.ImagePath,
	})
	return id, mongoErr(err)
}

func (m *MongoDB) GetProduct(ctx context.Context, id int64) (Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var d productDoc
	if err := m.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return Product{}, mongoErr(err)
	}
	return d.product()
}

func (m *MongoDB) ListProducts(ctx context.Context, q ProductQuery) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	filter := bson.M{}
	if q.Category != "" {
		filter["category_name"] = q.Category
	}
	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern}},
			bson.M{"description": bson.M{"$regex": pattern}},
		}
	}

	opts := options.Find()
	switch q.Sort {
	case SortPriceAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}})
	case SortPriceDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}})
	default:
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}

	cur, err := m.Products.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.product()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (m *MongoDB) CountProducts(ctx context.Context) (int64, error) {
	return m.Products.CountDocuments(ctx, bson.M{})
}

// --- reviews ---

type reviewDoc struct {
	ID        int64     `bson:"_id"`
	ProductID int64     `bson:"product_id"`
	UserID    int64     `bson:"user_id"`
	Rating    *int      `bson:"rating"`
	Text      string    `bson:"review_text"`
	CreatedAt time.Time `bson:"created_at"`
}

func (m *MongoDB) InsertReview(ctx context.Context, r Review) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	id, err := m.nextID(ctx, "reviews")
	if err != nil {
		return 0, err
	}
	_, err = m.Reviews.InsertOne(ctx, reviewDoc{
		ID:        id,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	})
	if err != nil {
		return 0, mongoErr(err)
	}
	return id, nil
}

func (m *MongoDB) ListReviews(ctx context.Context, productID int64) ([]ReviewWithAuthor, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
	}
	cur, err := m.Reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		Review reviewDoc `bson:",inline"`
		Author struct {
			FirstName string `bson:"first_name"`
			LastName  string `bson:"last_name"`
		} `bson:"author"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	reviews := make([]ReviewWithAuthor, 0, len(docs))
	for _, d := range docs {
		reviews = append(reviews, ReviewWithAuthor{
			Review: Review{
				ID:        d.Review.ID,
				ProductID: d.Review.ProductID,
				UserID:    d.Review.UserID,
				Rating:    d.Review.Rating,
				Text:      d.Review.Text,
				CreatedAt: d.Review.CreatedAt,
			},
			FirstName: d.Author.FirstName,
			LastName:  d.Author.LastName,
		})
	}
	return reviews, nil
}

func (m *MongoDB) RatingsByProduct(ctx context.Context, productIDs []int64) (map[int64][]int, error) {
	ratings := make(map[int64][]int)
	if len(productIDs) == 0 {
		return ratings, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	filter := bson.M{
		"product_id": bson.M{"$in": productIDs},
		"rating":     bson.M{"$ne": nil},
	}
	opts := options.Find().SetProjection(bson.M{"product_id": 1, "rating": 1})
	cur, err := m.Reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var d struct {
			ProductID int64 `bson:"product_id"`
			Rating    int   `bson:"rating"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		ratings[d.ProductID] = append(ratings[d.ProductID], d.Rating)
	}
	return ratings, cur.Err()
}

// --- users & roles ---

type userDoc struct {
	ID           int64     `bson:"_id"`
	Phone        string    `bson:"phone"`
	Email        string    `bson:"email,omitempty"`
	PasswordHash string    `bson:"password_hash"`
	RoleID       int       `bson:"role_id"`
	FirstName    string    `bson:"first_name,omitempty"`
	LastName     string    `bson:"last_name,omitempty"`
	Address      string    `bson:"address,omitempty"`
	RegisteredAt time.Time `bson:"registration_date"`
}

func (d userDoc) user() User {
	return User{
		ID:           d.ID,
		Phone:        d.Phone,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		RoleID:       d.RoleID,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Address:      d.Address,
		RegisteredAt: d.RegisteredAt,
	}
}

func (m *MongoDB) InsertUser(ctx context.Context, u User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	id, err := m.nextID(ctx, "users")
	if err != nil {
		return 0, err
	}
	_, err = m.Users.InsertOne(ctx, userDoc{
		ID:           id,
		Phone:        u.Phone,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Address:      u.Address,
		RegisteredAt: u.RegisteredAt,
	})
	if err != nil {
		return 0, mongoErr(err)
	}
	return id, nil
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var d userDoc
	if err := m.Users.FindOne(ctx, filter).Decode(&d); err != nil {
		return User{}, mongoErr(err)
	}
	return d.user(), nil
}

func (m *MongoDB) GetUser(ctx context.Context, id int64) (User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (User, error) {
	if email == "" {
		return User{}, ErrNoRecord
	}
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *MongoDB) UserExists(ctx context.Context, email, phone string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	or := bson.A{bson.M{"phone": phone}}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	n, err := m.Users.CountDocuments(ctx, bson.M{"$or": or}, options.Count().SetLimit(1))
	return n > 0, err
}

func (m *MongoDB) CountUsers(ctx context.Context) (int64, error) {
	return m.Users.CountDocuments(ctx, bson.M{})
}

func (m *MongoDB) GetRole(ctx context.Context, id int) (Role, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var d struct {
		ID   int    `bson:"_id"`
		Name string `bson:"name"`
	}
	if err := m.Roles.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return Role{}, mongoErr(err)
	}
	return Role{ID: d.ID, Name: d.Name}, nil
}
