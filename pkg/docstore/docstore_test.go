package docstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
)

func unconnectedClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.NewClient(options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	return client
}

func TestClientDialsOnceUnderConcurrency(t *testing.T) {
	store := New(config.DocstoreConfig{URI: "mongodb://localhost:27017", Database: "test"}, nil)
	client := unconnectedClient(t)

	var dials int32
	store.connect = func(context.Context) (*mongo.Client, error) {
		atomic.AddInt32(&dials, 1)
		return client, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Client(context.Background())
			assert.NoError(t, err)
			assert.Same(t, client, got)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&dials))
}

func TestFailedDialIsRetried(t *testing.T) {
	store := New(config.DocstoreConfig{URI: "mongodb://localhost:27017", Database: "test"}, nil)
	client := unconnectedClient(t)

	attempts := 0
	store.connect = func(context.Context) (*mongo.Client, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		return client, nil
	}

	_, err := store.Client(context.Background())
	require.Error(t, err)

	got, err := store.Client(context.Background())
	require.NoError(t, err)
	require.Same(t, client, got)
	require.Equal(t, 2, attempts)
}

func TestClientAfterCloseFails(t *testing.T) {
	store := New(config.DocstoreConfig{URI: "mongodb://localhost:27017"}, nil)
	require.NoError(t, store.Close(context.Background()))

	_, err := store.Client(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestDialRequiresURI(t *testing.T) {
	store := New(config.DocstoreConfig{}, nil)
	_, err := store.Client(context.Background())
	require.Error(t, err)
}

func TestDecimal128RoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "1500", "2530.50", "0.125"} {
		d := decimal.RequireFromString(raw)
		v, err := ToDecimal128(d)
		require.NoError(t, err)
		back, err := FromDecimal128(v)
		require.NoError(t, err)
		require.Truef(t, d.Equal(back), "%s came back as %s", d, back)
	}

	none, err := NullableDecimal(NullableDecimal128(decimal.NullDecimal{}))
	require.NoError(t, err)
	require.False(t, none.Valid)
}
