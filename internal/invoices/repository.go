package invoice

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/docstore"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
)

// ListFilter narrows a newest-first invoice listing. Limit <= 0 returns every match.
type ListFilter struct {
	Status enums.InvoiceStatus
	Query  string
	After  *pagination.Cursor
	Limit  int
}

// Repository persists invoices together with their line items.
type Repository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]models.Invoice, error)
}

// SQLRepository stores invoices through GORM; items live in invoice_items.
type SQLRepository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *SQLRepository {
	return &SQLRepository{Base: repo.NewBase(db)}
}

func (r *SQLRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(invoice).Error
	})
}

func (r *SQLRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.DB(ctx).
		Preload("Items", orderedItems).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, repo.Translate(err)
	}
	return &invoice, nil
}

// Delete removes the invoice; its items go with it through ON DELETE CASCADE.
func (r *SQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB(ctx).Delete(&models.Invoice{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, filter ListFilter) ([]models.Invoice, error) {
	query := r.DB(ctx).Model(&models.Invoice{}).Preload("Items", orderedItems)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if strings.TrimSpace(filter.Query) != "" {
		query = query.Where(`LOWER(customer) LIKE ? ESCAPE '\'`, repo.ContainsPattern(filter.Query))
	}
	if c := filter.After; c != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

type itemDoc struct {
	ProductID *string              `bson:"productId,omitempty"`
	Name      string               `bson:"name"`
	Quantity  primitive.Decimal128 `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type invoiceDoc struct {
	ID            string               `bson:"_id"`
	Customer      string               `bson:"customer"`
	Date          time.Time            `bson:"date"`
	Status        string               `bson:"status"`
	Items         []itemDoc            `bson:"items"`
	Total         primitive.Decimal128 `bson:"total"`
	CashPayment   primitive.Decimal128 `bson:"cashPayment"`
	OnlinePayment primitive.Decimal128 `bson:"onlinePayment"`
	AmountPaid    primitive.Decimal128 `bson:"amountPaid"`
	AmountOwed    primitive.Decimal128 `bson:"amountOwed"`
	CreatedBy     *string              `bson:"createdBy,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

func newInvoiceDoc(inv *models.Invoice) (invoiceDoc, error) {
	doc := invoiceDoc{
		ID:        inv.ID.String(),
		Customer:  inv.Customer,
		Date:      inv.InvoiceDate,
		Status:    string(inv.Status),
		Items:     make([]itemDoc, 0, len(inv.Items)),
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
	amounts := []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&doc.Total, inv.Total},
		{&doc.CashPayment, inv.CashPayment},
		{&doc.OnlinePayment, inv.OnlinePayment},
		{&doc.AmountPaid, inv.AmountPaid},
		{&doc.AmountOwed, inv.AmountOwed},
	}
	for _, a := range amounts {
		v, err := docstore.ToDecimal128(a.src)
		if err != nil {
			return invoiceDoc{}, err
		}
		*a.dst = v
	}
	for _, item := range inv.Items {
		qty, err := docstore.ToDecimal128(item.Quantity)
		if err != nil {
			return invoiceDoc{}, err
		}
		price, err := docstore.ToDecimal128(item.Price)
		if err != nil {
			return invoiceDoc{}, err
		}
		d := itemDoc{Name: item.Name, Quantity: qty, Price: price}
		if item.ProductID != nil {
			pid := item.ProductID.String()
			d.ProductID = &pid
		}
		doc.Items = append(doc.Items, d)
	}
	if inv.CreatedBy != nil {
		by := inv.CreatedBy.String()
		doc.CreatedBy = &by
	}
	return doc, nil
}

func (d invoiceDoc) toModel() (models.Invoice, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Invoice{}, err
	}
	inv := models.Invoice{
		ID:          id,
		Customer:    d.Customer,
		InvoiceDate: d.Date,
		Status:      enums.InvoiceStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Items:       make([]models.InvoiceItem, 0, len(d.Items)),
	}
	if inv.Total, err = docstore.FromDecimal128(d.Total); err != nil {
		return models.Invoice{}, err
	}
	if inv.CashPayment, err = docstore.FromDecimal128(d.CashPayment); err != nil {
		return models.Invoice{}, err
	}
	if inv.OnlinePayment, err = docstore.FromDecimal128(d.OnlinePayment); err != nil {
		return models.Invoice{}, err
	}
	if inv.AmountPaid, err = docstore.FromDecimal128(d.AmountPaid); err != nil {
		return models.Invoice{}, err
	}
	if inv.AmountOwed, err = docstore.FromDecimal128(d.AmountOwed); err != nil {
		return models.Invoice{}, err
	}
	for i, item := range d.Items {
		row := models.InvoiceItem{InvoiceID: id, Position: i, Name: item.Name}
		if row.Quantity, err = docstore.FromDecimal128(item.Quantity); err != nil {
			return models.Invoice{}, err
		}
		if row.Price, err = docstore.FromDecimal128(item.Price); err != nil {
			return models.Invoice{}, err
		}
		if item.ProductID != nil {
			pid, err := uuid.Parse(*item.ProductID)
			if err != nil {
				return models.Invoice{}, err
			}
			row.ProductID = &pid
		}
		inv.Items = append(inv.Items, row)
	}
	if d.CreatedBy != nil {
		by, err := uuid.Parse(*d.CreatedBy)
		if err != nil {
			return models.Invoice{}, err
		}
		inv.CreatedBy = &by
	}
	return inv, nil
}

// MongoRepository stores invoices as single documents with embedded items.
type MongoRepository struct {
	repo.DocBase
}

func NewMongoRepository(store *docstore.Store) *MongoRepository {
	return &MongoRepository{DocBase: repo.NewDocBase(store, docstore.CollectionInvoices)}
}

func (r *MongoRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	now := time.Now().UTC()
	invoice.CreatedAt, invoice.UpdatedAt = now, now
	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
	}

	doc, err := newInvoiceDoc(invoice)
	if err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, doc)
	return err
}

func (r *MongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	var doc invoiceDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, repo.Translate(err)
	}
	inv, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &inv, nil
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
	return nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]models.Invoice, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query["customer"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}
	if c := filter.After; c != nil {
		query["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": c.CreatedAt}},
			bson.M{"createdAt": c.CreatedAt, "_id": bson.M{"$lt": c.ID.String()}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []invoiceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	invoices := make([]models.Invoice, 0, len(docs))
	for _, doc := range docs {
		inv, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
