package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxReceiptSize caps decoded receipt images at 8MiB.
const maxReceiptSize = 8 * 1024 * 1024

// receiptExtensions maps the allowed receipt MIME types to file extensions.
var receiptExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ReceiptServiceImpl implements ports.ReceiptService.
type ReceiptServiceImpl struct {
	store  ports.ObjectStore
	bucket string
	log    zerolog.Logger
}

// NewReceiptService creates a new ReceiptServiceImpl.
func NewReceiptService(store ports.ObjectStore, bucket string, log zerolog.Logger) *ReceiptServiceImpl {
	return &ReceiptServiceImpl{
		store:  store,
		bucket: bucket,
		log:    log,
	}
}

// StoreReceipt resolves a submitted receipt value to a stored URL. Plain
// http(s) URLs pass through untouched; base64 data URLs are decoded and
// uploaded. An empty value clears the receipt.
func (s *ReceiptServiceImpl) StoreReceipt(ctx context.Context, expenseID, ownerID uuid.UUID, value string) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return &value, nil
	}

	if !strings.HasPrefix(value, "data:") {
		return nil, apperror.ErrInvalidReceipt("receipt must be an http(s) URL or a base64 data URL")
	}

	contentType, data, err := decodeDataURL(value)
	if err != nil {
		return nil, apperror.ErrInvalidReceipt(err.Error())
	}

	ext, ok := receiptExtensions[contentType]
	if !ok {
		return nil, apperror.ErrInvalidReceipt(fmt.Sprintf("unsupported receipt type %s", contentType))
	}
	if len(data) > maxReceiptSize {
		return nil, apperror.ErrInvalidReceipt("receipt image exceeds the 8MiB limit")
	}

	url, err := s.store.Upload(ctx, ports.UploadRequest{
		Bucket:      s.bucket,
		ObjectPath:  fmt.Sprintf("%s/%s%s", ownerID, expenseID, ext),
		ContentType: contentType,
		Data:        data,
		Upsert:      true,
	})
	if err != nil {
		return nil, apperror.ErrUpstream("object store", err)
	}

	s.log.Info().
		Str("expense_id", expenseID.String()).
		Int("bytes", len(data)).
		Msg("receipt uploaded")

	return &url, nil
}

// decodeDataURL splits a "data:<mime>;base64,<payload>" value into its MIME
// type and decoded bytes.
func decodeDataURL(value string) (string, []byte, error) {
	header, payload, found := strings.Cut(value, ",")
	if !found {
		return "", nil, fmt.Errorf("malformed data URL")
	}

	meta := strings.TrimPrefix(header, "data:")
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("data URL must be base64 encoded")
	}
	contentType := strings.TrimSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload")
	}
	return contentType, data, nil
}
