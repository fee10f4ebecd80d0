package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/abgdnv/product-catalog/internal/product/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultCollection is the collection products are kept in unless configured otherwise.
const DefaultCollection = "products"

var _ ProductStore = (*MongoStore)(nil)

// productDocument is the stored shape of a product. The id doubles as the document _id
// and prices are Decimal128 so the server sorts them numerically.
type productDocument struct {
	ID          int64                 `bson:"_id"`
	Name        *string               `bson:"name,omitempty"`
	Description *string               `bson:"description,omitempty"`
	Price       *primitive.Decimal128 `bson:"price,omitempty"`
	Quantity    *int32                `bson:"quantity,omitempty"`
}

// MongoStore implements ProductStore using a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a new MongoStore on top of the given collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	var doc productDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	p, err := doc.toProduct()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (s *MongoStore) FindAll(ctx context.Context) ([]Product, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// FindAllSortedByPrice relies on the server placing missing prices before any number.
func (s *MongoStore) FindAllSortedByPrice(ctx context.Context, order SortOrder) ([]Product, error) {
	direction := 1
	if order == Descending {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "price", Value: direction}, {Key: "_id", Value: direction}})
	return s.find(ctx, bson.M{}, opts)
}

func (s *MongoStore) Insert(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	docs := make([]any, len(products))
	for i, p := range products {
		doc, err := toDocument(p)
		if err != nil {
			return err
		}
		docs[i] = doc
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to insert products: %w", errors.ErrProductExists)
		}
		return fmt.Errorf("failed to insert products: %w", err)
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(products))
	for i, p := range products {
		doc, err := toDocument(p)
		if err != nil {
			return err
		}
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetReplacement(doc).
			SetUpsert(true)
	}
	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to upsert products: %w", err)
	}
	return nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return errors.ErrProductNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]Product, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]Product, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func toDocument(p Product) (productDocument, error) {
	doc := productDocument{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Quantity:    p.Quantity,
	}
	if p.Price != nil {
		d128, err := primitive.ParseDecimal128(p.Price.String())
		if err != nil {
			return productDocument{}, fmt.Errorf("price %s of product %d does not fit decimal128: %w", p.Price, p.ID, err)
		}
		doc.Price = &d128
	}
	return doc, nil
}

func (d productDocument) toProduct() (Product, error) {
	p := Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Quantity:    d.Quantity,
	}
	if d.Price != nil {
		price, err := decimal.NewFromString(d.Price.String())
		if err != nil {
			return Product{}, fmt.Errorf("stored price of product %d is not a number: %w", d.ID, err)
		}
		p.Price = &price
	}
	return p, nil
}
