package model

import (
	"fmt"
	"strings"
)

// Warning is a non-fatal issue met while processing a document.
type Warning struct {
	Page    int    `json:"page,omitempty"` // 1-indexed, 0 when not page specific
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into a single semicolon-separated line.
func FormatWarnings(ws []Warning) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
