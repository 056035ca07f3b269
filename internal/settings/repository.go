package settings

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/docstore"
)

// Repository persists the single settings document.
type Repository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, row *models.Settings) error
}

type SQLRepository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *SQLRepository {
	return &SQLRepository{Base: repo.NewBase(db)}
}

func (r *SQLRepository) Get(ctx context.Context) (*models.Settings, error) {
	var row models.Settings
	if err := r.DB(ctx).First(&row, "id = ?", models.SettingsRowID).Error; err != nil {
		return nil, repo.Translate(err)
	}
	return &row, nil
}

// Save inserts the row or overwrites every column but created_at.
func (r *SQLRepository) Save(ctx context.Context, row *models.Settings) error {
	row.ID = models.SettingsRowID
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name", "company_email", "company_phone", "company_address",
			"invoice_footer_note", "invoice_currency", "notifications", "theme", "updated_at",
		}),
	}).Create(row).Error
}

type companyDoc struct {
	Name    string `bson:"name"`
	Email   string `bson:"email"`
	Phone   string `bson:"phone"`
	Address string `bson:"address"`
}

type invoiceDoc struct {
	FooterNote string `bson:"footerNote"`
	Currency   string `bson:"currency"`
}

type settingsDoc struct {
	ID            int        `bson:"_id"`
	Company       companyDoc `bson:"company"`
	Invoice       invoiceDoc `bson:"invoice"`
	Notifications bool       `bson:"notifications"`
	Theme         string     `bson:"theme"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
}

type MongoRepository struct {
	repo.DocBase
}

func NewMongoRepository(store *docstore.Store) *MongoRepository {
	return &MongoRepository{DocBase: repo.NewDocBase(store, docstore.CollectionSettings)}
}

func (r *MongoRepository) Get(ctx context.Context) (*models.Settings, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	var doc settingsDoc
	if err := coll.FindOne(ctx, bson.M{"_id": models.SettingsRowID}).Decode(&doc); err != nil {
		return nil, repo.Translate(err)
	}
	return &models.Settings{
		ID:                doc.ID,
		CompanyName:       doc.Company.Name,
		CompanyEmail:      doc.Company.Email,
		CompanyPhone:      doc.Company.Phone,
		CompanyAddress:    doc.Company.Address,
		InvoiceFooterNote: doc.Invoice.FooterNote,
		InvoiceCurrency:   doc.Invoice.Currency,
		Notifications:     doc.Notifications,
		Theme:             doc.Theme,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}, nil
}

func (r *MongoRepository) Save(ctx context.Context, row *models.Settings) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row.ID = models.SettingsRowID
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}

	doc := settingsDoc{
		ID: row.ID,
		Company: companyDoc{
			Name:    row.CompanyName,
			Email:   row.CompanyEmail,
			Phone:   row.CompanyPhone,
			Address: row.CompanyAddress,
		},
		Invoice:       invoiceDoc{FooterNote: row.InvoiceFooterNote, Currency: row.InvoiceCurrency},
		Notifications: row.Notifications,
		Theme:         row.Theme,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	_, err = coll.ReplaceOne(ctx, bson.M{"_id": row.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
