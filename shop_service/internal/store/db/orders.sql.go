package db

import (
	"context"

	"github.com/shopspring/decimal"
)

const createOrder = `
INSERT INTO orders (user_id, total_sum)
VALUES ($1, $2)
RETURNING id, user_id, total_sum, created_at
`

type CreateOrderParams struct {
	UserID   int64
	TotalSum decimal.Decimal
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.UserID, arg.TotalSum)
	var i Order
	err := row.Scan(&i.ID, &i.UserID, &i.TotalSum, &i.CreatedAt)
	return i, err
}

const createOrderPosition = `
INSERT INTO order_positions (order_id, title, description, img_path, price, count)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, title, description, img_path, price, count
`

type CreateOrderPositionParams struct {
	OrderID     int64
	Title       string
	Description string
	ImgPath     string
	Price       decimal.Decimal
	Count       int32
}

func (q *Queries) CreateOrderPosition(ctx context.Context, arg CreateOrderPositionParams) (OrderPosition, error) {
	row := q.db.QueryRow(ctx, createOrderPosition,
		arg.OrderID, arg.Title, arg.Description, arg.ImgPath, arg.Price, arg.Count)
	var i OrderPosition
	err := row.Scan(&i.ID, &i.OrderID, &i.Title, &i.Description, &i.ImgPath, &i.Price, &i.Count)
	return i, err
}

const findOrderForUser = `
SELECT id, user_id, total_sum, created_at
FROM orders
WHERE id = $1 AND user_id = $2
`

type FindOrderForUserParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) FindOrderForUser(ctx context.Context, arg FindOrderForUserParams) (Order, error) {
	row := q.db.QueryRow(ctx, findOrderForUser, arg.ID, arg.UserID)
	var i Order
	err := row.Scan(&i.ID, &i.UserID, &i.TotalSum, &i.CreatedAt)
	return i, err
}

const findOrdersByUserID = `
SELECT id, user_id, total_sum, created_at
FROM orders
WHERE user_id = $1
ORDER BY id
`

func (q *Queries) FindOrdersByUserID(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := q.db.Query(ctx, findOrdersByUserID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var i Order
		if err := rows.Scan(&i.ID, &i.UserID, &i.TotalSum, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findOrderPositionsByOrderIDs = `
SELECT id, order_id, title, description, img_path, price, count
FROM order_positions
WHERE order_id = ANY ($1::BIGINT[])
ORDER BY order_id, id
`

func (q *Queries) FindOrderPositionsByOrderIDs(ctx context.Context, orderIDs []int64) ([]OrderPosition, error) {
	rows, err := q.db.Query(ctx, findOrderPositionsByOrderIDs, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderPosition
	for rows.Next() {
		var i OrderPosition
		if err := rows.Scan(&i.ID, &i.OrderID, &i.Title, &i.Description, &i.ImgPath, &i.Price, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
