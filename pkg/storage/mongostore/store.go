// Package mongostore persists users, foods and orders in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage"
)

const (
	usersCollection  = "users"
	foodsCollection  = "foods"
	ordersCollection = "orders"
)

// Config holds the connection settings.
type Config struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	ConnectTimeout         time.Duration
}

// DefaultConfig returns the pool limits and timeouts used in production.
func DefaultConfig(uri, database string) Config {
	return Config{
		URI:                    uri,
		Database:               database,
		MaxPoolSize:            10,
		ServerSelectionTimeout: 10 * time.Second,
		SocketTimeout:          45 * time.Second,
		ConnectTimeout:         10 * time.Second,
	}
}

func (c Config) clientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(c.URI).
		SetMaxPoolSize(c.MaxPoolSize).
		SetServerSelectionTimeout(c.ServerSelectionTimeout).
		SetSocketTimeout(c.SocketTimeout).
		SetConnectTimeout(c.ConnectTimeout)
}

// Store implements the catalog, order and auth repositories on one database.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	foods  *mongo.Collection
	orders *mongo.Collection
	logger *logrus.Logger
}

// Open connects, pings the primary and makes sure the unique indexes exist. A ping failure is
// returned wrapped in storage.ErrUnavailable with the client already disconnected.
func Open(ctx context.Context, cfg Config, logger *logrus.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database is required")
	}
	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	db := client.Database(cfg.Database)
	s := &Store{
		client: client,
		users:  db.Collection(usersCollection),
		foods:  db.Collection(foodsCollection),
		orders: db.Collection(ordersCollection),
		logger: logger,
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.WithField("database", cfg.Database).Info("connected to mongo")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("users email index: %w", classify(err))
	}
	if _, err := s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderNumber", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("orders number index: %w", classify(err))
	}
	if _, err := s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "orderDate", Value: -1}},
	}); err != nil {
		return fmt.Errorf("orders date index: %w", classify(err))
	}
	return nil
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: ping: %w", storage.ErrUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// classify maps driver errors onto the storage sentinels.
func classify(err error) error {
	var sse topology.ServerSelectionError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", storage.ErrDuplicate, err)
	case mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &sse):
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	default:
		return err
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", storage.ErrNotFound, id)
	}
	return oid, nil
}

// InsertUser stores u. A taken email reports storage.ErrDuplicate through the unique index.
func (s *Store) InsertUser(ctx context.Context, u auth.User) (auth.User, error) {
	doc := newUserDocument(u)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return auth.User{}, classify(err)
	}
	return doc.user(), nil
}

// FindUserByEmail looks up one account.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return auth.User{}, classify(err)
	}
	return doc.user(), nil
}

// ListFoods returns the whole catalog.
func (s *Store) ListFoods(ctx context.Context) ([]catalog.FoodItem, error) {
	cursor, err := s.foods.Find(ctx, bson.M{})
	if err != nil {
		return nil, classify(err)
	}
	var docs []foodDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	items := make([]catalog.FoodItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.food())
	}
	return items, nil
}

// ReplaceFoods clears the collection and inserts items.
func (s *Store) ReplaceFoods(ctx context.Context, items []catalog.FoodItem) ([]catalog.FoodItem, error) {
	if _, err := s.foods.DeleteMany(ctx, bson.M{}); err != nil {
		return nil, classify(err)
	}
	if len(items) == 0 {
		return []catalog.FoodItem{}, nil
	}
	docs := make([]interface{}, 0, len(items))
	stored := make([]catalog.FoodItem, 0, len(items))
	for _, item := range items {
		doc := newFoodDocument(item)
		doc.ID = primitive.NewObjectID()
		docs = append(docs, doc)
		stored = append(stored, doc.food())
	}
	if _, err := s.foods.InsertMany(ctx, docs); err != nil {
		return nil, classify(err)
	}
	return stored, nil
}

// InsertOrder stores o. A taken order number reports storage.ErrDuplicate.
func (s *Store) InsertOrder(ctx context.Context, o order.Order) (order.Order, error) {
	doc := newOrderDocument(o)
	doc.ID = primitive.NewObjectID()
	if doc.OrderDate.IsZero() {
		doc.OrderDate = time.Now().UTC()
	}
	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return order.Order{}, classify(err)
	}
	return doc.order(), nil
}

// FindOrder looks up one order by hex id.
func (s *Store) FindOrder(ctx context.Context, id string) (order.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return order.Order{}, err
	}
	var doc orderDocument
	if err := s.orders.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return order.Order{}, classify(err)
	}
	return doc.order(), nil
}

// ListOrders returns every order sorted by orderDate, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}})
	cursor, err := s.orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	orders := make([]order.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.order())
	}
	return orders, nil
}

// UpdateOrderStatus sets the status to to only while the stored status equals from.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, from, to order.Status) (order.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return order.Order{}, err
	}
	filter := bson.M{"_id": oid, "status": string(from)}
	update := bson.M{"$set": bson.M{"status": string(to)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDocument
	err = s.orders.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.order(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return order.Order{}, classify(err)
	}
	n, err := s.orders.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return order.Order{}, classify(err)
	}
	if n == 0 {
		return order.Order{}, fmt.Errorf("%w: order %s", storage.ErrNotFound, id)
	}
	return order.Order{}, fmt.Errorf("%w: order %s is no longer %s", storage.ErrConflict, id, from)
}
