package postgres

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"masbate_today/internal/domain"
)

// cursor is the keyset position of the last row of a page.
type cursor struct {
	PublishedAt *time.Time `json:"p,omitempty"`
	Views       int64      `json:"v"`
	ID          string     `json:"i"`
}

func encodeCursor(c cursor) domain.Cursor {
	data, _ := json.Marshal(c)
	return domain.Cursor(base64.RawURLEncoding.EncodeToString(data))
}

func decodeCursor(token domain.Cursor) (cursor, error) {
	var c cursor

	data, err := base64.RawURLEncoding.DecodeString(string(token))
	if err != nil {
		return c, fmt.Errorf("decode cursor: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode cursor: %w", err)
	}
	if c.ID == "" {
		return c, fmt.Errorf("decode cursor: missing id")
	}

	return c, nil
}
