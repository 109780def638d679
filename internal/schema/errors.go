package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-dynapi/internal/validation"
)

// ErrDocumentInvalid is the sentinel wrapped by every schema rejection.
var ErrDocumentInvalid = errors.New("schema: document invalid")

// SchemaError enumerates every violation found in a submitted document so a
// caller can fix the schema in one round trip.
type SchemaError struct {
	Issues []validation.ValidationIssue
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ErrDocumentInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Location != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", issue.Location, issue.Message))
			continue
		}
		parts = append(parts, issue.Message)
	}
	return fmt.Sprintf("%s: %s", ErrDocumentInvalid.Error(), strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrDocumentInvalid
}
