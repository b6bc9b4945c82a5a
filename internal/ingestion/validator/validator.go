// Package validator checks ingestion requests and reports per-field errors.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion"
	"golang.org/x/text/language"
)

const (
	maxIDLength   = 255
	maxTextLength = 1048576
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks the document ID, text and locale of req.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	if len(req.ID) > maxIDLength {
		errs["id"] = fmt.Sprintf("id must be at most %d bytes", maxIDLength)
	} else if req.ID != "" && strings.TrimSpace(req.ID) != req.ID {
		errs["id"] = "id must not have leading or trailing spaces"
	}
	switch {
	case strings.TrimSpace(req.Text) == "":
		errs["text"] = "text is required and must not be empty"
	case len(req.Text) > maxTextLength:
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	case !utf8.ValidString(req.Text):
		errs["text"] = "text must be valid UTF-8"
	}
	if req.Locale != "" {
		if _, err := language.Parse(req.Locale); err != nil {
			errs["locale"] = fmt.Sprintf("unknown locale %q", req.Locale)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
