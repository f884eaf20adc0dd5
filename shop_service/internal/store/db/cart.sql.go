package db

import (
	"context"

	"github.com/shopspring/decimal"
)

type CartPositionParams struct {
	ItemID int64
	UserID int64
}

// The SELECT yields no row for an unknown item, so zero affected rows means the item does not exist.
const upsertCartPosition = `
INSERT INTO cart_positions (item_id, user_id, count)
SELECT id, $2, 1
FROM items
WHERE id = $1
ON CONFLICT (item_id, user_id) DO UPDATE SET count = cart_positions.count + 1
`

func (q *Queries) UpsertCartPosition(ctx context.Context, arg CartPositionParams) (int64, error) {
	result, err := q.db.Exec(ctx, upsertCartPosition, arg.ItemID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const lockCartPositionCount = `
SELECT count
FROM cart_positions
WHERE item_id = $1 AND user_id = $2
FOR UPDATE
`

func (q *Queries) LockCartPositionCount(ctx context.Context, arg CartPositionParams) (int32, error) {
	row := q.db.QueryRow(ctx, lockCartPositionCount, arg.ItemID, arg.UserID)
	var count int32
	err := row.Scan(&count)
	return count, err
}

const decrementCartPosition = `
UPDATE cart_positions
SET count = count - 1
WHERE item_id = $1 AND user_id = $2
`

func (q *Queries) DecrementCartPosition(ctx context.Context, arg CartPositionParams) error {
	_, err := q.db.Exec(ctx, decrementCartPosition, arg.ItemID, arg.UserID)
	return err
}

const deleteCartPosition = `
DELETE FROM cart_positions
WHERE item_id = $1 AND user_id = $2
`

func (q *Queries) DeleteCartPosition(ctx context.Context, arg CartPositionParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCartPosition, arg.ItemID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCartPositionsByUser = `
DELETE FROM cart_positions
WHERE user_id = $1
`

func (q *Queries) DeleteCartPositionsByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCartPositionsByUser, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getCartPositionCount = `
SELECT count
FROM cart_positions
WHERE item_id = $1 AND user_id = $2
`

func (q *Queries) GetCartPositionCount(ctx context.Context, arg CartPositionParams) (int32, error) {
	row := q.db.QueryRow(ctx, getCartPositionCount, arg.ItemID, arg.UserID)
	var count int32
	err := row.Scan(&count)
	return count, err
}

const listCartLines = `
SELECT i.id, i.title, i.description, i.img_path, i.price, cp.count
FROM cart_positions cp
         JOIN items i ON i.id = cp.item_id
WHERE cp.user_id = $1
ORDER BY cp.id
`

type ListCartLinesRow struct {
	ItemID      int64
	Title       string
	Description string
	ImgPath     string
	Price       decimal.Decimal
	Count       int32
}

func (q *Queries) ListCartLines(ctx context.Context, userID int64) ([]ListCartLinesRow, error) {
	rows, err := q.db.Query(ctx, listCartLines, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListCartLinesRow
	for rows.Next() {
		var i ListCartLinesRow
		if err := rows.Scan(&i.ItemID, &i.Title, &i.Description, &i.ImgPath, &i.Price, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
