package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/docstore"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// Repository exposes user-related persistence operations. Emails are stored and matched
// lower-cased.
type Repository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SQLRepository is the relational user store.
type SQLRepository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *SQLRepository {
	return &SQLRepository{Base: repo.NewBase(conn)}
}

// Create inserts a new user and returns the persisted model.
func (r *SQLRepository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, repo.Translate(err)
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *SQLRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, repo.Translate(err)
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *SQLRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now().UTC()}).Error
}

type userDoc struct {
	ID          string     `bson:"_id"`
	Name        string     `bson:"name"`
	Email       string     `bson:"email"`
	Password    string     `bson:"password"`
	Role        string     `bson:"role"`
	IsActive    bool       `bson:"isActive"`
	LastLoginAt *time.Time `bson:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func (d userDoc) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         enums.Role(d.Role),
		IsActive:     d.IsActive,
		LastLoginAt:  d.LastLoginAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// MongoRepository keeps users in the "users" collection. A unique index on email is
// expected; EnsureIndexes creates it.
type MongoRepository struct {
	repo.DocBase
}

func NewMongoRepository(store *docstore.Store) *MongoRepository {
	return &MongoRepository{DocBase: repo.NewDocBase(store, docstore.CollectionUsers)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err = coll.InsertOne(ctx, userDoc{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	coll, err := r.Collection(ctx)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, repo.Translate(err)
	}
	return doc.toModel()
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (r *MongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *MongoRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.set(ctx, id, bson.M{"lastLoginAt": at})
}

func (r *MongoRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.set(ctx, id, bson.M{"password": hash, "updatedAt": time.Now().UTC()})
}

func (r *MongoRepository) set(ctx context.Context, id uuid.UUID, fields bson.M) error {
	coll, err := r.Collection(ctx)
	if err != nil {
		return err
	}
	_, err = coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": fields})
	return err
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
