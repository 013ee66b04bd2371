package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/storage"
)

// Sentinel errors for screenshot uploads.
var (
	ErrScreenshotsDisabled = errors.New("screenshot storage is not configured")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed screenshot MIME types.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ScreenshotService stores screenshots captured by the exam environment app.
type ScreenshotService struct {
	store    storage.ObjectStore
	maxBytes int64
	now      func() time.Time
	log      zerolog.Logger
}

// NewScreenshotService creates a new ScreenshotService.
// A nil store disables uploads.
func NewScreenshotService(store storage.ObjectStore, maxBytes int64, log zerolog.Logger) *ScreenshotService {
	return &ScreenshotService{
		store:    store,
		maxBytes: maxBytes,
		now:      time.Now,
		log:      log.With().Str("component", "screenshot_service").Logger(),
	}
}

// Enabled reports whether uploads are accepted.
func (s *ScreenshotService) Enabled() bool {
	return s.store != nil
}

// Save stores an uploaded screenshot for userID and returns its object key.
func (s *ScreenshotService) Save(ctx context.Context, userID uuid.UUID, file multipart.File, header *multipart.FileHeader) (string, error) {
	if !s.Enabled() {
		return "", ErrScreenshotsDisabled
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	if header.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.maxBytes)
	}

	key := fmt.Sprintf("screenshots/%s/%d-%s%s", userID, s.now().UnixMilli(), uuid.New(), ext)
	if err := s.store.Put(ctx, key, file, header.Size, contentType); err != nil {
		return "", err
	}

	s.log.Debug().
		Str("user_id", userID.String()).
		Str("key", key).
		Int64("bytes", header.Size).
		Msg("Screenshot stored")
	return key, nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
