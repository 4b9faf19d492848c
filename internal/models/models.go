package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = 1
	RoleCustomer = 2
)

// DefaultImagePath is reported for products stored without an image.
const DefaultImagePath = "no image"

// PricePlaces is the scale of every amount stored and sent on the wire.
const PricePlaces = 2

// FormatPrice renders an amount with exactly PricePlaces decimals, so 27.00
// stays "27.00" rather than decimal's trimmed "27".
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(PricePlaces)
}

type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Weight      *int            `json:"weight,omitempty" db:"weight"`
	Stock       int             `json:"stock" db:"stock"`
	Category    string          `json:"category" db:"category_name"`
	ImagePath   string          `json:"image_path" db:"image_path"`
}

type Review struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Rating    *int      `json:"rating" db:"rating"`
	Text      string    `json:"text" db:"review_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReviewWithAuthor is a review joined with the author's name by storage.
type ReviewWithAuthor struct {
	Review
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

type CartLine struct {
	UserID    int64 `json:"user_id" db:"user_id"`
	ProductID int64 `json:"product_id" db:"product_id"`
	Quantity  int   `json:"quantity" db:"quantity"`
}

type User struct {
	ID           int64     `json:"id" db:"id"`
	Phone        string    `json:"phone" db:"phone"`
	Email        string    `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	RoleID       int       `json:"role_id" db:"role_id"`
	FirstName    string    `json:"first_name,omitempty" db:"first_name"`
	LastName     string    `json:"last_name,omitempty" db:"last_name"`
	Address      string    `json:"address,omitempty" db:"address"`
	RegisteredAt time.Time `json:"registration_date" db:"registration_date"`
}

// FullName joins first and last name, skipping empty parts.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Role struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Identity is the per-request record of who is calling. The zero value is an
// anonymous caller.
type Identity struct {
	UserID        int64
	RoleID        int
	Authenticated bool
	Token         string
}

// Profile is the public projection of a User.
type Profile struct {
	ID           int64  `json:"id"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Address      string `json:"address,omitempty"`
	Registration string `json:"registration_date"`
	RoleID       int    `json:"role_id"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		Phone:        u.Phone,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Address:      u.Address,
		Registration: u.RegisteredAt.Format(time.DateOnly),
		RoleID:       u.RoleID,
	}
}

// ReviewAggregate is derived from rated reviews only. Average is exactly 0
// when Count is 0; Rated tells a zero average apart from "no ratings yet".
type ReviewAggregate struct {
	Count   int     `json:"review_count"`
	Average float64 `json:"average_rating"`
	Rated   bool    `json:"rated"`
}

type ProductView struct {
	Product
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
	Rated         bool    `json:"rated"`
	IsInCart      bool    `json:"is_in_cart"`
}

func (v ProductView) MarshalJSON() ([]byte, error) {
	type view ProductView
	return json.Marshal(struct {
		view
		Price string `json:"price"`
	}{view(v), FormatPrice(v.Price)})
}

type ReviewView struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Rating    int       `json:"rating"`
	Rated     bool      `json:"rated"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

type ProductReviews struct {
	ProductID   int64        `json:"product_id"`
	ProductName string       `json:"product_name"`
	Reviews     []ReviewView `json:"reviews"`
}

type CartLineView struct {
	ProductID   int64           `json:"product_id" db:"product_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	ImagePath   string          `json:"image_path" db:"image_path"`
	Stock       int             `json:"stock" db:"stock"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Total       decimal.Decimal `json:"total" db:"-"`
}

func (v CartLineView) MarshalJSON() ([]byte, error) {
	type view CartLineView
	return json.Marshal(struct {
		view
		Price string `json:"price"`
		Total string `json:"total"`
	}{view(v), FormatPrice(v.Price), FormatPrice(v.Total)})
}
