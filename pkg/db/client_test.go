package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestQueryLoggerReportsSlowAndFailedQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), GormConfig(logg, time.Nanosecond))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	buf.Reset()
	conn.Create(&testModel{Name: "slow"})
	if !strings.Contains(buf.String(), `"message":"slow query"`) || !strings.Contains(buf.String(), `"sql":"INSERT INTO`) {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}

	buf.Reset()
	var missing testModel
	conn.Where("name = ?", "nobody").First(&missing)
	if strings.Contains(buf.String(), "query failed") {
		t.Fatalf("record not found must not be logged as a failure: %s", buf.String())
	}

	buf.Reset()
	conn.Exec("SELECT * FROM no_such_table")
	if !strings.Contains(buf.String(), "query failed") {
		t.Fatalf("expected failed query entry, got %s", buf.String())
	}
}

func TestGormConfigWithoutLoggerIsSilent(t *testing.T) {
	cfg := GormConfig(nil, time.Second)
	if cfg.Logger != gormlogger.Discard {
		t.Fatalf("expected discard logger")
	}
	if !cfg.SkipDefaultTransaction {
		t.Fatalf("expected default transactions to be skipped")
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := FromGorm(db)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestFromGormDetectsSQLite(t *testing.T) {
	client := FromGorm(newTestDB(t))
	if client.Dialect() != DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %q", client.Dialect())
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := newTestDB(t)
	if err := conn.Exec("CREATE UNIQUE INDEX idx_test_models_name ON test_models(name)").Error; err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := conn.Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := conn.Create(&testModel{Name: "dup"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if !IsUniqueViolation(err, "test_models.name") {
		t.Fatalf("expected constraint match, got %v", err)
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("plain errors are not unique violations")
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, false, nil); err == nil {
		t.Fatal("expected error without dsn")
	}
}
