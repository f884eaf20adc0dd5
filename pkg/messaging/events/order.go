package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/abgdnv/gomarket/pkg/messaging"
	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	Carrier    map[string]string `json:"carrier,omitempty"`
	OrderID    int64             `json:"order_id"`
	UserID     int64             `json:"user_id"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Lines      int               `json:"lines"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (o OrderCreatedEvent) Subject() string {
	return messaging.OrdersCreatedSubject
}

func (o OrderCreatedEvent) Key() string {
	return "order-created-" + strconv.FormatInt(o.OrderID, 10)
}

func (o OrderCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
