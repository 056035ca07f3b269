package product

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/docstore"
)

// ListFilter narrows product listings. Zero values match everything.
type ListFilter struct {
	Category string
	Query    string
}

// Repository defines persistence for catalogue products.
type Repository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	// Delete removes the product and clears bundle references to it.
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
}

// SQLRepository stores products through GORM.
type SQLRepository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *SQLRepository {
	return &SQLRepository{Base: repo.NewBase(db)}
}

func (r *SQLRepository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *SQLRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.DB(ctx).Model(product).Select("*").Omit("created_at").Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// Delete relies on the bundle_with_id foreign key (ON DELETE SET NULL) to clear references.
func (r *SQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, repo.Translate(err)
	}
	return &product, nil
}

// List returns products ordered by name.
func (r *SQLRepository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if strings.TrimSpace(filter.Query) != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, repo.ContainsPattern(filter.Query))
	}

	var products []models.Product
	if err := query.Order("name ASC").Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

type productDoc struct {
	ID              string                `bson:"_id"`
	Name            string                `bson:"name"`
	ImageURL        *string               `bson:"imageUrl,omitempty"`
	Price           primitive.Decimal128  `bson:"price"`
	DiscountedPrice *primitive.Decimal128 `bson:"discountedPrice,omitempty"`
	Quantity        primitive.Decimal128  `bson:"quantity"`
	Category        string                `bson:"category"`
	BundleWith      *string               `bson:"bundleWith,omitempty"`
	AllowFractional bool                  `bson:"allowFractional"`
	CreatedAt       time.Time             `bson:"createdAt"`
	UpdatedAt       time.Time             `bson:"updatedAt"`
}

func newProductDoc(p *models.Product) (productDoc, error) {
	price, err := docstore.ToDecimal128(p.Price)
	if err != nil {
		return productDoc{}, err
	}
	qty, err := docstore.ToDecimal128(p.Quantity)
	if err != nil {
		return productDoc{}, err
	}
	doc := productDoc{
		ID:              p.ID.String(),
		Name:            p.Name,
		ImageURL:        p.ImageURL,
		Price:           price,
		Quantity:        qty,
		Category:        p.Category,
		AllowFractional: p.AllowFractional,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.DiscountedPrice.Valid {
		doc.DiscountedPrice = docstore.NullableDecimal128(p.DiscountedPrice)
	}
	if p.BundleWithID != nil {
		partner := p.BundleWithID.String()
		doc.BundleWith = &partner
	}
	return doc, nil
}

func (d productDoc) toModel() (models.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Product{}, err
	}
	price, err := docstore.FromDecimal128(d.Price)
	if err != nil {
		return models.Product{}, err
	}
	qty, err := docstore.FromDecimal128(d.Quantity)
	if err != nil {
		return models.Product{}, err
	}
	discounted, err := docstore.NullableDecimal(d.DiscountedPrice)
	if err != nil {
		return models.Product{}, err
	}
	p := models.Product{
		ID:              id,
		Name:            d.Name,
		ImageURL:        d.ImageURL,
		Price:           price,
		DiscountedPrice: discounted,
		Quantity:        qty,
		Category:        d.Category,
		AllowFractional: d.AllowFractional,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.BundleWith != nil {
		partner, err := uuid.Parse(*d.BundleWith)
		if err != nil {
			return models.Product{}, err
		}
		p.BundleWithID = &partner
	}
	return p, nil
}

// MongoRepository stores products in the "products" collection.
type MongoRepository struct {
	repo.DocBase
}

func NewMongoRepository(store *docstore.Store) *MongoRepository {
	return &MongoRepository{DocBase: repo.NewDocBase(store, docstore.CollectionProducts)}
}

func (r *MongoRepository) Create(ctx context.Context, product *models.Product) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now

	doc, err := newProductDoc(product)
	if err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, doc)
	return err
}

func (r *MongoRepository) Update(ctx context.Context, product *models.Product) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	product.UpdatedAt = time.Now().UTC()
	doc, err := newProductDoc(product)
	if err != nil {
		return err
	}
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	_, err = coll.UpdateMany(ctx, bson.M{"bundleWith": id.String()}, bson.M{"$unset": bson.M{"bundleWith": ""}})
	return err
}

func (r *MongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	var doc productDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, repo.Translate(err)
	}
	p, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}

	cursor, err := coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
