package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"submerge/internal/logging"
)

// Record is one decoded batch log line.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	Subject   string
	EventType string
	// Attrs holds every remaining field.
	Attrs map[string]any
}

// Parse decodes a JSON log line.
func Parse(line string) (Record, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, fmt.Errorf("decode log line: %w", err)
	}
	rec := Record{
		Level:     popString(raw, "level"),
		Message:   popString(raw, "msg"),
		Component: popString(raw, logging.FieldComponent),
		Subject:   popString(raw, logging.FieldSubject),
		EventType: popString(raw, logging.FieldEventType),
	}
	if ts := popString(raw, "ts"); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return Record{}, fmt.Errorf("decode log time: %w", err)
		}
		rec.Time = t
	}
	delete(raw, logging.FieldBatchID)
	rec.Attrs = raw
	return rec, nil
}

// String renders the record on one line: time, level, component, message,
// then subject and the remaining attributes sorted by key.
func (r Record) String() string {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Local().Format(time.TimeOnly))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(r.Level))
	if r.Component != "" {
		b.WriteString(r.Component)
		b.WriteString(": ")
	}
	b.WriteString(r.Message)
	if r.Subject != "" {
		fmt.Fprintf(&b, " subject=%q", r.Subject)
	}
	keys := make([]string, 0, len(r.Attrs))
	for k := range r.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, r.Attrs[k])
	}
	return b.String()
}

func popString(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	s, _ := v.(string)
	return s
}
