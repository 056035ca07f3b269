package repo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/pkg/docstore"
)

// ErrNotFound is returned by every repository, whichever backend serves it.
var ErrNotFound = errors.New("record not found")

// Translate maps driver-specific not-found sentinels onto ErrNotFound.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// Base provides a shared foundation for relational repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to a transaction.
func (b Base) WithTx(tx *gorm.DB) Base {
	return Base{db: tx}
}

// DocBase is the document-store counterpart of Base, bound to one collection.
type DocBase struct {
	store *docstore.Store
	name  string
}

func NewDocBase(store *docstore.Store, collection string) DocBase {
	return DocBase{store: store, name: collection}
}

// Collection resolves the bound collection, dialing the store on first use.
func (b DocBase) Collection(ctx context.Context) (*mongo.Collection, error) {
	return b.store.Collection(ctx, b.name)
}

// ContainsPattern builds a case-insensitive LIKE operand matching term anywhere.
func ContainsPattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(strings.TrimSpace(term)))
	return "%" + escaped + "%"
}
