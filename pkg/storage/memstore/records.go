package memstore

import (
	"time"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
)

// userRecord keeps the raw persisted representation, password hash included.
type userRecord struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"createdAt"`
}

type foodRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

type lineRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

type orderRecord struct {
	ID            string       `json:"_id"`
	Number        string       `json:"orderNumber"`
	Items         []lineRecord `json:"items"`
	CustomerName  string       `json:"customerName"`
	Phone         string       `json:"phone"`
	Address       string       `json:"address"`
	TotalAmount   int64        `json:"totalAmount"`
	PaymentMethod string       `json:"paymentMethod"`
	Status        string       `json:"status"`
	UserID        string       `json:"userId,omitempty"`
	CreatedAt     time.Time    `json:"orderDate"`
}

// snapshot is written to disk after each mutation so the store survives restarts.
type snapshot struct {
	Users  []userRecord  `json:"users"`
	Foods  []foodRecord  `json:"foods"`
	Orders []orderRecord `json:"orders"`
}

func userToRecord(u auth.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (r userRecord) user() auth.User {
	return auth.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func foodToRecord(f catalog.FoodItem) foodRecord {
	return foodRecord{ID: f.ID, Name: f.Name, Price: f.Price, Category: string(f.Category), Image: f.Image}
}

func (r foodRecord) food() catalog.FoodItem {
	return catalog.FoodItem{ID: r.ID, Name: r.Name, Price: r.Price, Category: catalog.Category(r.Category), Image: r.Image}
}

func orderToRecord(o order.Order) orderRecord {
	items := make([]lineRecord, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, lineRecord{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Image:    l.Image,
			Category: string(l.Category),
		})
	}
	return orderRecord{
		ID:            o.ID,
		Number:        o.Number,
		Items:         items,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		Address:       o.Address,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		UserID:        o.UserID,
		CreatedAt:     o.CreatedAt,
	}
}

func (r orderRecord) order() order.Order {
	items := make([]order.Line, 0, len(r.Items))
	for _, l := range r.Items {
		items = append(items, order.Line{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Image:    l.Image,
			Category: catalog.Category(l.Category),
		})
	}
	return order.Order{
		ID:            r.ID,
		Number:        r.Number,
		Items:         items,
		CustomerName:  r.CustomerName,
		Phone:         r.Phone,
		Address:       r.Address,
		TotalAmount:   r.TotalAmount,
		PaymentMethod: order.PaymentMethod(r.PaymentMethod),
		Status:        order.Status(r.Status),
		UserID:        r.UserID,
		CreatedAt:     r.CreatedAt,
	}
}

func (s snapshot) clone() snapshot {
	out := snapshot{
		Users:  append([]userRecord(nil), s.Users...),
		Foods:  append([]foodRecord(nil), s.Foods...),
		Orders: make([]orderRecord, len(s.Orders)),
	}
	for i, o := range s.Orders {
		o.Items = append([]lineRecord(nil), o.Items...)
		out.Orders[i] = o
	}
	return out
}
