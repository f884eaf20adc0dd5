package db

import "context"

const getItem = `
SELECT id, title, description, img_path, price
FROM items
WHERE id = $1
`

func (q *Queries) GetItem(ctx context.Context, id int64) (Item, error) {
	row := q.db.QueryRow(ctx, getItem, id)
	var i Item
	err := row.Scan(&i.ID, &i.Title, &i.Description, &i.ImgPath, &i.Price)
	return i, err
}
