package models

import "context"

type SortOrder int

const (
	SortNone SortOrder = iota
	SortPriceAsc
	SortPriceDesc
)

// ParseSortOrder maps the public sort parameter onto a SortOrder. Anything
// unrecognised, including the empty string, is SortNone.
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "price-asc":
		return SortPriceAsc
	case "price-desc":
		return SortPriceDesc
	default:
		return SortNone
	}
}

func (s SortOrder) String() string {
	switch s {
	case SortPriceAsc:
		return "price-asc"
	case SortPriceDesc:
		return "price-desc"
	default:
		return "none"
	}
}

// ProductQuery narrows a product listing. Category must match exactly and
// Search is a case-sensitive substring of name or description. Empty fields
// do not filter.
type ProductQuery struct {
	Category string
	Search   string
	Sort     SortOrder
}

type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, q ProductQuery) ([]Product, error)
	CountProducts(ctx context.Context) (int64, error)
}

type ReviewStore interface {
	InsertReview(ctx context.Context, r Review) (int64, error)
	ListReviews(ctx context.Context, productID int64) ([]ReviewWithAuthor, error)
	// RatingsByProduct returns the set ratings of every listed product.
	// Unrated reviews are left out.
	RatingsByProduct(ctx context.Context, productIDs []int64) (map[int64][]int, error)
}

type CartStore interface {
	InsertCartLine(ctx context.Context, line CartLine) error
	GetCartLine(ctx context.Context, userID, productID int64) (CartLine, error)
	UpdateCartQuantity(ctx context.Context, userID, productID int64, quantity int) error
	DeleteCartLine(ctx context.Context, userID, productID int64) error
	ListCartLines(ctx context.Context, userID int64) ([]CartLineView, error)
	CartProductIDs(ctx context.Context, userID int64) ([]int64, error)
}

type UserStore interface {
	InsertUser(ctx context.Context, u User) (int64, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UserExists(ctx context.Context, email, phone string) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
}

type RoleStore interface {
	GetRole(ctx context.Context, id int) (Role, error)
}

// Store is the full storage collaborator.
type Store interface {
	ProductStore
	ReviewStore
	CartStore
	UserStore
	RoleStore
	Close(ctx context.Context) error
}
