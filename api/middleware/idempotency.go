package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/invoicedesk-backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	maxIdempotencyKeyLen = 128
	// DefaultReplayTTL is how long a settled response stays replayable.
	DefaultReplayTTL = 24 * time.Hour
	// claimTTL bounds how long a request that died mid-flight keeps its key locked.
	claimTTL = time.Minute
)

type replayState string

const (
	statePending replayState = "pending"
	stateDone    replayState = "done"
)

type replayRecord struct {
	State       replayState `json:"state"`
	RequestHash string      `json:"request_hash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        []byte      `json:"body,omitempty"`
}

// Replayable guards a creating endpoint against double submission. The first request
// carrying an Idempotency-Key claims it; a duplicate arriving while the first is still
// running gets a conflict, and one arriving afterwards receives the stored response.
// Requests without the header, or without a store, pass straight through.
func Replayable(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be at most %d characters", IdempotencyHeader, maxIdempotencyKeyLen))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			call := replayCall{
				store: store,
				logg:  logg,
				key:   store.IdempotencyKey(replayScope(r), clientKey),
				hash:  digest(body),
			}

			claimed, err := call.claim(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				call.replay(w, r)
				return
			}

			capture := &responseCapture{statusRecorder: statusRecorder{ResponseWriter: w}}
			next.ServeHTTP(capture, r)
			call.settle(context.WithoutCancel(r.Context()), capture, ttl)
		})
	}
}

type replayCall struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
	key   string
	hash  string
}

func (c replayCall) claim(ctx context.Context) (bool, error) {
	pending, err := json.Marshal(replayRecord{State: statePending, RequestHash: c.hash})
	if err != nil {
		return false, err
	}
	return c.store.SetNX(ctx, c.key, string(pending), claimTTL)
}

func (c replayCall) replay(w http.ResponseWriter, r *http.Request) {
	raw, err := c.store.Get(r.Context(), c.key)
	if errors.Is(err, redis.Nil) {
		// the claim expired between SetNX and Get
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request is being processed, retry shortly"))
		return
	}
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}

	var record replayRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != c.hash {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "Idempotency-Key reused with a different request body"))
		return
	}
	if record.State != stateDone {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is still in progress"))
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set("Idempotent-Replay", "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

// settle stores a final response for replay. Server errors release the claim instead so
// the client can retry with the same key.
func (c replayCall) settle(ctx context.Context, capture *responseCapture, ttl time.Duration) {
	status := capture.statusCode()
	if status >= http.StatusInternalServerError {
		if err := c.store.Del(ctx, c.key); err != nil && c.logg != nil {
			c.logg.Error(ctx, "release idempotency key", err)
		}
		return
	}

	done, err := json.Marshal(replayRecord{
		State:       stateDone,
		RequestHash: c.hash,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	})
	if err == nil {
		err = c.store.Set(ctx, c.key, string(done), ttl)
	}
	if err != nil && c.logg != nil {
		c.logg.Error(ctx, "persist idempotency record", err)
	}
}

func replayScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// responseCapture tees the response so it can be stored after the handler returns.
type responseCapture struct {
	statusRecorder
	body bytes.Buffer
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.statusRecorder.Write(b)
}
