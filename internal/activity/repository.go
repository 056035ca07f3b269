package activity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/docstore"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

const defaultListLimit = 500

// Filter narrows the activity list. Zero values match everything.
type Filter struct {
	Type  enums.ActivityType
	Query string
	Limit int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Repository persists activity entries.
type Repository interface {
	Create(ctx context.Context, entry *models.Activity) error
	List(ctx context.Context, filter Filter) ([]models.Activity, error)
}

// SQLRepository stores activity rows through GORM.
type SQLRepository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *SQLRepository {
	return &SQLRepository{Base: repo.NewBase(db)}
}

func (r *SQLRepository) Create(ctx context.Context, entry *models.Activity) error {
	return r.DB(ctx).Create(entry).Error
}

// List returns entries newest first.
func (r *SQLRepository) List(ctx context.Context, filter Filter) ([]models.Activity, error) {
	query := r.DB(ctx).Model(&models.Activity{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Query != "" {
		pattern := repo.ContainsPattern(filter.Query)
		query = query.Where(`LOWER(actor) LIKE ? ESCAPE '\' OR LOWER(action) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var entries []models.Activity
	if err := query.Order("created_at DESC").Limit(filter.limit()).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

type activityDoc struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Action    string    `bson:"action"`
	Type      string    `bson:"type"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoRepository stores activity documents in the "activities" collection.
type MongoRepository struct {
	repo.DocBase
}

func NewMongoRepository(store *docstore.Store) *MongoRepository {
	return &MongoRepository{DocBase: repo.NewDocBase(store, docstore.CollectionActivities)}
}

func (r *MongoRepository) Create(ctx context.Context, entry *models.Activity) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	entry.CreatedAt, entry.UpdatedAt = now, now

	_, err = coll.InsertOne(ctx, activityDoc{
		ID:        entry.ID.String(),
		User:      entry.Actor,
		Action:    entry.Action,
		Type:      string(entry.Type),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}

func (r *MongoRepository) List(ctx context.Context, filter Filter) ([]models.Activity, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	if filter.Query != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(strings.TrimSpace(filter.Query)), "$options": "i"}
		query["$or"] = bson.A{bson.M{"user": pattern}, bson.M{"action": pattern}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(filter.limit()))
	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []activityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]models.Activity, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.Activity{
			ID:        id,
			Actor:     doc.User,
			Action:    doc.Action,
			Type:      enums.ActivityType(doc.Type),
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return entries, nil
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
