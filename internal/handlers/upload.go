package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/service"
)

const maxUpload = 10 << 20

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// readForm parses a multipart body and rejects fields outside values/files.
func readForm(c *gin.Context, values, files map[string]bool) (*multipart.Form, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return nil, errors.New("expected multipart/form-data body")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	for k := range form.Value {
		if !values[k] {
			return nil, fmt.Errorf("unknown field %q", k)
		}
	}
	for k := range form.File {
		if !files[k] {
			return nil, fmt.Errorf("unknown file field %q", k)
		}
	}
	return form, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// formList accepts a repeated field or a single JSON array value.
func formList(form *multipart.Form, key string) ([]string, error) {
	vals := form.Value[key]
	if len(vals) == 1 && strings.HasPrefix(strings.TrimSpace(vals[0]), "[") {
		var out []string
		if err := json.Unmarshal([]byte(vals[0]), &out); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return out, nil
	}
	return vals, nil
}

// parseOptionalDate leaves an empty value as the zero time so that the
// service reports it as missing.
func parseOptionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return calendar.ParseDate(s)
}

func isImage(ct string) bool   { return strings.HasPrefix(ct, "image/") }
func isReceipt(ct string) bool { return isImage(ct) || ct == "application/pdf" }

// readUpload returns nil when the file field is absent.
func readUpload(form *multipart.Form, field string, allowed func(string) bool) (*service.Upload, error) {
	fhs := form.File[field]
	if len(fhs) == 0 {
		return nil, nil
	}
	fh := fhs[0]
	if fh.Size > maxUpload {
		return nil, fmt.Errorf("%s is larger than %d bytes", field, maxUpload)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) > maxUpload {
		return nil, fmt.Errorf("%s is larger than %d bytes", field, maxUpload)
	}
	if ct := http.DetectContentType(data); !allowed(ct) {
		return nil, fmt.Errorf("%s: unsupported content type %s", field, ct)
	}
	return &service.Upload{Filename: fh.Filename, Data: data}, nil
}
