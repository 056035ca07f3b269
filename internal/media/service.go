// Package media accepts product image uploads and stores them through a storage backend.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/invoicedesk-backend/pkg/storage"
)

const keyPrefix = "products"

// UploadResult is returned once the object is fully stored.
type UploadResult struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Service exposes image uploads.
type Service interface {
	Upload(ctx context.Context, actor string, body io.Reader) (*UploadResult, error)
	MaxBytes() int64
}

type service struct {
	uploader storage.Uploader
	cfg      config.MediaConfig
	activity activity.Recorder
	metrics  *metrics.UploadMetrics
	now      func() time.Time
}

func NewService(uploader storage.Uploader, cfg config.MediaConfig, recorder activity.Recorder, m *metrics.UploadMetrics) (Service, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &service{uploader: uploader, cfg: cfg, activity: recorder, metrics: m, now: time.Now}, nil
}

func (s *service) MaxBytes() int64 { return s.cfg.MaxUploadBytes() }

// Upload reads the whole file under the size limit, sniffs its type, shrinks oversized
// images and stores the result under a fresh key.
func (s *service) Upload(ctx context.Context, actor string, body io.Reader) (*UploadResult, error) {
	limit := s.cfg.MaxUploadBytes()
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read upload")
	}
	if len(data) == 0 {
		s.metrics.IncRejected("empty")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > limit {
		s.metrics.IncRejected("too_large")
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds the %d MB upload limit", limit>>20)
	}

	contentType, kind, err := sniff(data)
	if err != nil {
		s.metrics.IncRejected("type")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	if kind.resizable {
		data, err = s.fit(data, kind)
		if err != nil {
			s.metrics.IncRejected("decode")
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image could not be decoded")
		}
	}

	key := path.Join(keyPrefix, s.now().UTC().Format("2006/01"), uuid.NewString()+kind.ext)
	url, err := s.uploader.Put(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}

	s.metrics.ObserveSize(s.uploader.Backend(), int64(len(data)))
	s.activity.Record(ctx, activity.Entry{Actor: actor, Action: "Uploaded image " + path.Base(key), Type: enums.ActivityTypeInfo})
	return &UploadResult{URL: url, ContentType: contentType, Size: int64(len(data))}, nil
}

// fit re-encodes images larger than the configured bounds; smaller images are stored
// untouched.
func (s *service) fit(data []byte, kind imageType) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	maxW, maxH := s.cfg.ImageMaxWidth, s.cfg.ImageMaxHeight
	b := img.Bounds()
	if maxW <= 0 || maxH <= 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return data, nil
	}

	resized := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	var buf bytes.Buffer
	opts := []imaging.EncodeOption{}
	if kind.format == imaging.JPEG && s.cfg.ImageQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(s.cfg.ImageQuality))
	}
	if err := imaging.Encode(&buf, resized, kind.format, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
