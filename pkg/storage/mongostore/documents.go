package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Phone     string             `bson:"phone"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type foodDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Price    int64              `bson:"price"`
	Category string             `bson:"category"`
	Image    string             `bson:"image"`
}

type lineDocument struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name"`
	Price    int64  `bson:"price"`
	Quantity int    `bson:"quantity"`
	Image    string `bson:"image"`
	Category string `bson:"category"`
}

type orderDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OrderNumber   string             `bson:"orderNumber"`
	Items         []lineDocument     `bson:"items"`
	CustomerName  string             `bson:"customerName"`
	Phone         string             `bson:"phone"`
	Address       string             `bson:"address"`
	TotalAmount   int64              `bson:"totalAmount"`
	PaymentMethod string             `bson:"paymentMethod"`
	Status        string             `bson:"status"`
	UserID        string             `bson:"userId,omitempty"`
	OrderDate     time.Time          `bson:"orderDate"`
}

func newUserDocument(u auth.User) userDocument {
	return userDocument{
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
	}
}

func (d userDocument) user() auth.User {
	return auth.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func newFoodDocument(f catalog.FoodItem) foodDocument {
	return foodDocument{Name: f.Name, Price: f.Price, Category: string(f.Category), Image: f.Image}
}

func (d foodDocument) food() catalog.FoodItem {
	return catalog.FoodItem{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Price:    d.Price,
		Category: catalog.Category(d.Category),
		Image:    d.Image,
	}
}

func newOrderDocument(o order.Order) orderDocument {
	items := make([]lineDocument, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, lineDocument{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Image:    l.Image,
			Category: string(l.Category),
		})
	}
	return orderDocument{
		OrderNumber:   o.Number,
		Items:         items,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		Address:       o.Address,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		UserID:        o.UserID,
		OrderDate:     o.CreatedAt,
	}
}

func (d orderDocument) order() order.Order {
	items := make([]order.Line, 0, len(d.Items))
	for _, l := range d.Items {
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
		ID:            d.ID.Hex(),
		Number:        d.OrderNumber,
		Items:         items,
		CustomerName:  d.CustomerName,
		Phone:         d.Phone,
		Address:       d.Address,
		TotalAmount:   d.TotalAmount,
		PaymentMethod: order.PaymentMethod(d.PaymentMethod),
		Status:        order.Status(d.Status),
		UserID:        d.UserID,
		CreatedAt:     d.OrderDate.UTC(),
	}
}
