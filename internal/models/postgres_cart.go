package models

import "context"

func (m *PostgresDB) InsertCartLine(ctx context.Context, line CartLine) error {
	_, err := m.DB.ExecContext(ctx,
		`INSERT INTO cart (user_id, product_id, quantity) VALUES ($1, $2, $3)`,
		line.UserID, line.ProductID, line.Quantity,
	)
	return pgErr(err)
}

func (m *PostgresDB) GetCartLine(ctx context.Context, userID, productID int64) (CartLine, error) {
	var line CartLine
	err := m.DB.GetContext(ctx, &line,
		`SELECT user_id, product_id, quantity FROM cart WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	return line, pgErr(err)
}

func (m *PostgresDB) UpdateCartQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	res, err := m.DB.ExecContext(ctx,
		`UPDATE cart SET quantity = $3 WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity,
	)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (m *PostgresDB) DeleteCartLine(ctx context.Context, userID, productID int64) error {
	res, err := m.DB.ExecContext(ctx,
		`DELETE FROM cart WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (m *PostgresDB) ListCartLines(ctx context.Context, userID int64) ([]CartLineView, error) {
	query := `SELECT c.product_id, p.product_name AS name, COALESCE(p.description, '') AS description,
			COALESCE(p.path_to_image, 'no image') AS image_path, p.stock, c.quantity, p.price
		FROM cart c
		JOIN catalog p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.added_at, c.product_id`

	lines := []CartLineView{}
	if err := m.DB.SelectContext(ctx, &lines, query, userID); err != nil {
		return nil, err
	}
	return lines, nil
}

func (m *PostgresDB) CartProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := m.DB.SelectContext(ctx, &ids, `SELECT product_id FROM cart WHERE user_id = $1`, userID)
	return ids, err
}
