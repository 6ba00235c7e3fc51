package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

var _ model.RecordSource = (*FileSource)(nil)

// FileSource reads a scraper dump: a JSON array or JSON Lines file.
type FileSource struct {
	name     string
	path     string
	platform string
	now      func() time.Time
}

// NewFileSource creates a source for the dump at path. platform is used for
// records that do not name their own source_platform.
func NewFileSource(name, path, platform string) *FileSource {
	return &FileSource{name: name, path: path, platform: platform, now: time.Now}
}

func (s *FileSource) Name() string { return s.name }

// Fetch reads and decodes the whole file. Records without a capture time get
// the time of this call.
func (s *FileSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("file source %s: %w", s.name, err)
	}
	recs, err := decodeRecords(data, s.platform, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("file source %s: %s: %w", s.name, s.path, err)
	}
	return recs, nil
}
