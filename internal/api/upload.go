package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/pennywise-app/pennywise/internal/model"
)

// MaxReceiptSize is the largest receipt the client will upload.
const MaxReceiptSize = 10 << 20

var receiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// SniffReceipt reads r fully, enforcing the size cap and a receipt content
// type. It returns the bytes and the detected type.
func SniffReceipt(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxReceiptSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading receipt: %w", err)
	}
	if len(data) > MaxReceiptSize {
		return nil, "", &model.ValidationError{Fields: []model.FieldError{
			{Field: "file", Message: fmt.Sprintf("receipt is larger than %d MB", MaxReceiptSize>>20)},
		}}
	}
	ct := http.DetectContentType(data)
	if !receiptTypes[ct] {
		return nil, "", &model.ValidationError{Fields: []model.FieldError{
			{Field: "file", Message: fmt.Sprintf("unsupported receipt type %s", ct)},
		}}
	}
	return data, ct, nil
}

// UploadReceipt sends a receipt image or PDF for owner and returns the
// server's message.
func (c *Client) UploadReceipt(ctx context.Context, owner, filename string, r io.Reader) (string, error) {
	data, ct, err := SniffReceipt(r)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("username", owner); err != nil {
		return "", fmt.Errorf("api: upload_expense: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("api: upload_expense: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("api: upload_expense: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("api: upload_expense: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload_expense", &buf)
	if err != nil {
		return "", &TransportError{Op: "upload_expense", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, "upload_expense", nil)
}
