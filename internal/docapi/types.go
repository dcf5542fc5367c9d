package docapi

import (
	"encoding/json"
	"strings"
	"time"
)

// naiveTimestampLayout matches ISO-8601 timestamps the server emits without
// a zone offset.
const naiveTimestampLayout = "2006-01-02T15:04:05.999999999"

// Document mirrors the document payload returned by every endpoint.
type Document struct {
	ID        string    `json:"id"`
	ShareID   string    `json:"share_id"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// ContentRequest is the body of create and update calls.
type ContentRequest struct {
	Content string `json:"content"`
}

// Timestamp decodes RFC 3339 and zone-less ISO-8601 timestamps. Zone-less
// values are taken as UTC.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parseTime(*raw)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(naiveTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
