package order

import (
	"encoding/json"
	"math"
	"time"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
)

// DeliveryFee is added to every order total.
const DeliveryFee int64 = 100

// maxSubtotal keeps Subtotal() + DeliveryFee inside int64.
const maxSubtotal = math.MaxInt64 - DeliveryFee

// Line is a value copy of a cart line taken at checkout.
type Line struct {
	ID       string           `json:"_id"`
	Name     string           `json:"name"`
	Price    int64            `json:"price"`
	Quantity int              `json:"quantity"`
	Image    string           `json:"image"`
	Category catalog.Category `json:"category"`
}

// PaymentMethod is how the customer settles on delivery.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Customer holds the delivery contact details.
type Customer struct {
	Name    string
	Phone   string
	Address string
}

// Request is everything the client submits at checkout. ClientTotal is informational only.
type Request struct {
	Items         []Line
	Customer      Customer
	PaymentMethod PaymentMethod
	ClientTotal   int64
	UserID        string
}

// Order is a placed order. Only Status changes after creation.
type Order struct {
	ID            string
	Number        string
	Items         []Line
	CustomerName  string
	Phone         string
	Address       string
	TotalAmount   int64
	PaymentMethod PaymentMethod
	Status        Status
	UserID        string
	CreatedAt     time.Time
}

// Subtotal sums price times quantity over the order lines.
func (o Order) Subtotal() int64 {
	var total int64
	for _, l := range o.Items {
		total += l.Price * int64(l.Quantity)
	}
	return total
}

// FilterStatus keeps the orders in status, preserving their order. An empty status keeps all.
func FilterStatus(orders []Order, status Status) []Order {
	if status == "" {
		return orders
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// wireOrder is the JSON shape clients see. The id is repeated as "_id" and "id".
type wireOrder struct {
	MongoID       string        `json:"_id"`
	ID            string        `json:"id"`
	Number        string        `json:"orderNumber"`
	Items         []Line        `json:"items"`
	CustomerName  string        `json:"customerName"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	TotalAmount   int64         `json:"totalAmount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        Status        `json:"status"`
	UserID        string        `json:"userId,omitempty"`
	CreatedAt     time.Time     `json:"orderDate"`
}

// MarshalJSON implements json.Marshaler.
func (o Order) MarshalJSON() ([]byte, error) {
	items := o.Items
	if items == nil {
		items = []Line{}
	}
	return json.Marshal(wireOrder{
		MongoID:       o.ID,
		ID:            o.ID,
		Number:        o.Number,
		Items:         items,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		Address:       o.Address,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		UserID:        o.UserID,
		CreatedAt:     o.CreatedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler and accepts either id field.
func (o *Order) UnmarshalJSON(data []byte) error {
	var w wireOrder
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	*o = Order{
		ID:            id,
		Number:        w.Number,
		Items:         w.Items,
		CustomerName:  w.CustomerName,
		Phone:         w.Phone,
		Address:       w.Address,
		TotalAmount:   w.TotalAmount,
		PaymentMethod: w.PaymentMethod,
		Status:        w.Status,
		UserID:        w.UserID,
		CreatedAt:     w.CreatedAt,
	}
	return nil
}
