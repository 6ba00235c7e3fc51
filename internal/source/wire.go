package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

// scrapedItem is one posting as written by the scrapers. Every field is kept
// raw so that a wrong JSON type degrades that field instead of the record.
type scrapedItem struct {
	JobID          json.RawMessage `json:"job_id"`
	Title          json.RawMessage `json:"title"`
	CompanyName    json.RawMessage `json:"company_name"`
	Location       json.RawMessage `json:"location"`
	Description    json.RawMessage `json:"description"`
	Requirements   json.RawMessage `json:"requirements"`
	SalaryRange    json.RawMessage `json:"salary_range"`
	SourceURL      json.RawMessage `json:"source_url"`
	SourcePlatform json.RawMessage `json:"source_platform"`
	ScrapedAt      json.RawMessage `json:"scraped_at"`
}

// timestampLayouts are tried in order for scraped_at. Scrapers emit local
// ISO timestamps without a zone; those are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// decodeRecords accepts a JSON array of items, an object with a "jobs" array,
// or JSON Lines. An entry that is not a JSON object still yields a record
// (with a "record" defect) so the pipeline can count it as rejected.
func decodeRecords(data []byte, platform string, fetchedAt time.Time) ([]model.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	case '{':
		var env struct {
			Jobs []json.RawMessage `json:"jobs"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Jobs != nil {
			entries = env.Jobs
			break
		}
		entries = splitLines(trimmed)
	default:
		return nil, fmt.Errorf("decode records: unexpected leading byte %q", trimmed[0])
	}

	recs := make([]model.RawRecord, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, decodeItem(e, platform, fetchedAt))
	}
	return recs, nil
}

func splitLines(data []byte) []json.RawMessage {
	var out []json.RawMessage
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		out = append(out, json.RawMessage(line))
	}
	return out
}

func decodeItem(data json.RawMessage, platform string, fetchedAt time.Time) model.RawRecord {
	var item scrapedItem
	if err := json.Unmarshal(data, &item); err != nil {
		return model.RawRecord{
			SourcePlatform: platform,
			CapturedAt:     fetchedAt,
			Defects:        []string{"record"},
		}
	}

	rec := model.RawRecord{}
	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"job_id", item.JobID, &rec.NativeID},
		{"title", item.Title, &rec.Title},
		{"company_name", item.CompanyName, &rec.Company},
		{"location", item.Location, &rec.Location},
		{"description", item.Description, &rec.Description},
		{"requirements", item.Requirements, &rec.Requirements},
		{"salary_range", item.SalaryRange, &rec.SalaryRange},
		{"source_url", item.SourceURL, &rec.SourceURL},
		{"source_platform", item.SourcePlatform, &rec.SourcePlatform},
	}
	for _, f := range fields {
		v, ok := textValue(f.raw)
		if !ok {
			rec.Defects = append(rec.Defects, f.name)
		}
		*f.dst = v
	}
	if strings.TrimSpace(rec.SourcePlatform) == "" {
		rec.SourcePlatform = platform
	}

	at, ok := timeValue(item.ScrapedAt)
	if !ok {
		rec.Defects = append(rec.Defects, "scraped_at")
	}
	if at.IsZero() {
		at = fetchedAt
	}
	rec.CapturedAt = at
	return rec
}

// textValue renders a JSON value as text. Strings pass through, null and
// absent values are empty, and lists of scalars are joined with a space (the
// scrapers emit multi-part locations that way). Other types are coerced and
// reported as not ok.
func textValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", true
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return "", false
		}
		var out []string
		ok := true
		for _, p := range parts {
			s, partOK := textValue(p)
			ok = ok && partOK
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return strings.Join(out, " "), ok
	case '{':
		return "", false
	default:
		// number or boolean
		return string(raw), false
	}
}

// timeValue parses scraped_at. Absent is zero and ok; unparseable is zero and
// not ok. Numbers are Unix seconds.
func timeValue(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, true
	}
	if raw[0] != '"' {
		secs, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(secs), 0).UTC(), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
