package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const productColumns = `id, product_name AS name, COALESCE(description, '') AS description, price, weight, stock,
	COALESCE(category_name, '') AS category_name, COALESCE(path_to_image, 'no image') AS image_path`

func (m *PostgresDB) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := m.DB.GetContext(ctx, &p, `SELECT `+productColumns+` FROM catalog WHERE id = $1`, id)
	return p, pgErr(err)
}

// ListProducts filters in SQL. strpos keeps the search case-sensitive and
// free of LIKE wildcards. Unsorted listings come back in id order, which is
// insertion order.
func (m *PostgresDB) ListProducts(ctx context.Context, q ProductQuery) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if q.Category != "" {
		args = append(args, q.Category)
		where = append(where, fmt.Sprintf("category_name = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, q.Search)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(strpos(product_name, $%d) > 0 OR strpos(COALESCE(description, ''), $%d) > 0)", n, n))
	}

	query := `SELECT ` + productColumns + ` FROM catalog`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch q.Sort {
	case SortPriceAsc:
		query += " ORDER BY price ASC, id"
	case SortPriceDesc:
		query += " ORDER BY price DESC, id"
	default:
		query += " ORDER BY id"
	}

	products := []Product{}
	if err := m.DB.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (m *PostgresDB) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := m.DB.GetContext(ctx, &n, `SELECT count(*) FROM catalog`)
	return n, err
}

func (m *PostgresDB) InsertReview(ctx context.Context, r Review) (int64, error) {
	query := `INSERT INTO reviews (user_id, product_id, rating, review_text, created_date)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	var id int64
	err := m.DB.QueryRowxContext(ctx, query, r.UserID, r.ProductID, r.Rating, r.Text, r.CreatedAt).Scan(&id)
	if err != nil {
		return 0, pgErr(err)
	}
	return id, nil
}

func (m *PostgresDB) ListReviews(ctx context.Context, productID int64) ([]ReviewWithAuthor, error) {
	query := `SELECT r.id, r.product_id, r.user_id, r.rating, COALESCE(r.review_text, '') AS review_text,
			r.created_date AS created_at,
			COALESCE(u.first_name, '') AS first_name, COALESCE(u.last_name, '') AS last_name
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.id`

	reviews := []ReviewWithAuthor{}
	if err := m.DB.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (m *PostgresDB) RatingsByProduct(ctx context.Context, productIDs []int64) (map[int64][]int, error) {
	ratings := make(map[int64][]int)
	if len(productIDs) == 0 {
		return ratings, nil
	}

	rows, err := m.DB.QueryxContext(ctx,
		`SELECT product_id, rating FROM reviews WHERE rating IS NOT NULL AND product_id = ANY($1)`,
		pq.Array(productIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			rating    int
		)
		if err := rows.Scan(&productID, &rating); err != nil {
			return nil, err
		}
		ratings[productID] = append(ratings[productID], rating)
	}
	return ratings, rows.Err()
}
