package models

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryDB keeps every record kind in process. Records are kept in insertion
// order, which is the order listings return when no sort is requested.
type MemoryDB struct {
	mu       sync.RWMutex
	products []Product
	reviews  []Review
	cart     []CartLine
	users    []User
	roles    map[int]Role
	nextID   map[string]int64
}

var _ Store = (*MemoryDB)(nil)

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		roles: map[int]Role{
			RoleAdmin:    {ID: RoleAdmin, Name: "admin"},
			RoleCustomer: {ID: RoleCustomer, Name: "customer"},
		},
		nextID: make(map[string]int64),
	}
}

func (m *MemoryDB) next(kind string) int64 {
	m.nextID[kind]++
	return m.nextID[kind]
}

// AddProduct stores p and returns it with its assigned id. A non-zero p.ID is
// kept as is.
func (m *MemoryDB) AddProduct(p Product) Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.next("products")
	} else if p.ID > m.nextID["products"] {
		m.nextID["products"] = p.ID
	}
	if p.ImagePath == "" {
		p.ImagePath = DefaultImagePath
	}
	m.products = append(m.products, p)
	return p
}

func (m *MemoryDB) findProduct(id int64) (Product, bool) {
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (m *MemoryDB) GetProduct(_ context.Context, id int64) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.findProduct(id)
	if !ok {
		return Product{}, ErrNoRecord
	}
	return p, nil
}

func (m *MemoryDB) ListProducts(_ context.Context, q ProductQuery) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Search != "" && !strings.Contains(p.Name, q.Search) && !strings.Contains(p.Description, q.Search) {
			continue
		}
		products = append(products, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.LessThan(products[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.GreaterThan(products[j].Price) })
	}
	return products, nil
}

func (m *MemoryDB) CountProducts(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.products)), nil
}

func (m *MemoryDB) InsertReview(_ context.Context, r Review) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findProduct(r.ProductID); !ok {
		return 0, fmt.Errorf("product %d: %w", r.ProductID, ErrNoRecord)
	}
	r.ID = m.next("reviews")
	m.reviews = append(m.reviews, r)
	return r.ID, nil
}

func (m *MemoryDB) ListReviews(_ context.Context, productID int64) ([]ReviewWithAuthor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var reviews []ReviewWithAuthor
	for _, r := range m.reviews {
		if r.ProductID != productID {
			continue
		}
		rv := ReviewWithAuthor{Review: r}
		if u, ok := m.findUser(r.UserID); ok {
			rv.FirstName, rv.LastName = u.FirstName, u.LastName
		}
		reviews = append(reviews, rv)
	}
	return reviews, nil
}

func (m *MemoryDB) RatingsByProduct(_ context.Context, productIDs []int64) (map[int64][]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	ratings := make(map[int64][]int)
	for _, r := range m.reviews {
		if r.Rating == nil || !wanted[r.ProductID] {
			continue
		}
		ratings[r.ProductID] = append(ratings[r.ProductID], *r.Rating)
	}
	return ratings, nil
}

func (m *MemoryDB) cartIndex(userID, productID int64) int {
	for i, l := range m.cart {
		if l.UserID == userID && l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (m *MemoryDB) InsertCartLine(_ context.Context, line CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cartIndex(line.UserID, line.ProductID) >= 0 {
		return ErrDuplicate
	}
	m.cart = append(m.cart, line)
	return nil
}

func (m *MemoryDB) GetCartLine(_ context.Context, userID, productID int64) (CartLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.cartIndex(userID, productID)
	if i < 0 {
		return CartLine{}, ErrNoRecord
	}
	return m.cart[i], nil
}

func (m *MemoryDB) UpdateCartQuantity(_ context.Context, userID, productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.cartIndex(userID, productID)
	if i < 0 {
		return ErrNoRecord
	}
	m.cart[i].Quantity = quantity
	return nil
}

func (m *MemoryDB) DeleteCartLine(_ context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.cartIndex(userID, productID)
	if i < 0 {
		return ErrNoRecord
	}
	m.cart = append(m.cart[:i], m.cart[i+1:]...)
	return nil
}

func (m *MemoryDB) ListCartLines(_ context.Context, userID int64) ([]CartLineView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var lines []CartLineView
	for _, l := range m.cart {
		if l.UserID != userID {
			continue
		}
		p, ok := m.findProduct(l.ProductID)
		if !ok {
			continue
		}
		lines = append(lines, CartLineView{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			ImagePath:   p.ImagePath,
			Stock:       p.Stock,
			Quantity:    l.Quantity,
			Price:       p.Price,
		})
	}
	return lines, nil
}

func (m *MemoryDB) CartProductIDs(_ context.Context, userID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []int64
	for _, l := range m.cart {
		if l.UserID == userID {
			ids = append(ids, l.ProductID)
		}
	}
	return ids, nil
}

func (m *MemoryDB) findUser(id int64) (User, bool) {
	for _, u := range m.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (m *MemoryDB) exists(email, phone string) bool {
	for _, u := range m.users {
		if u.Phone == phone || (email != "" && u.Email == email) {
			return true
		}
	}
	return false
}

func (m *MemoryDB) InsertUser(_ context.Context, u User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exists(u.Email, u.Phone) {
		return 0, ErrDuplicate
	}
	u.ID = m.next("users")
	m.users = append(m.users, u)
	return u.ID, nil
}

func (m *MemoryDB) GetUser(_ context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.findUser(id)
	if !ok {
		return User{}, ErrNoRecord
	}
	return u, nil
}

func (m *MemoryDB) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if email == "" {
		return User{}, ErrNoRecord
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNoRecord
}

func (m *MemoryDB) UserExists(_ context.Context, email, phone string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exists(email, phone), nil
}

func (m *MemoryDB) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *MemoryDB) GetRole(_ context.Context, id int) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNoRecord
	}
	return r, nil
}

func (m *MemoryDB) Close(context.Context) error { return nil }
