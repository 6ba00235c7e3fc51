package source

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

var _ model.RecordSource = (*GreenhouseSource)(nil)

// GreenhouseSource reads a company's Greenhouse job board.
type GreenhouseSource struct {
	boardToken  string
	companyName string
	client      *http.Client
	now         func() time.Time
}

// NewGreenhouseSource creates a source for one Greenhouse board.
func NewGreenhouseSource(boardToken, companyName string, client *http.Client) *GreenhouseSource {
	return &GreenhouseSource{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
		now:         time.Now,
	}
}

func (s *GreenhouseSource) Name() string { return "greenhouse:" + s.boardToken }

// URL is the board endpoint; rate limiting keys on its host.
func (s *GreenhouseSource) URL() string {
	return fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, s.boardToken)
}

// Fetch lists the board with job content included. Greenhouse double-encodes
// the content HTML, so it is unescaped once here and left as markup.
func (s *GreenhouseSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := get(ctx, s.client, s.URL())
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", s.boardToken, err)
	}

	var resp greenhouseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", s.boardToken, err)
	}

	fetchedAt := s.now().UTC()
	recs := make([]model.RawRecord, 0, len(resp.Jobs))
	for _, gj := range resp.Jobs {
		recs = append(recs, model.RawRecord{
			NativeID:       strconv.FormatInt(gj.ID, 10),
			Title:          gj.Title,
			Company:        s.companyName,
			Location:       gj.Location.Name,
			Description:    html.UnescapeString(gj.Content),
			SourcePlatform: "greenhouse",
			SourceURL:      gj.AbsoluteURL,
			CapturedAt:     fetchedAt,
		})
	}
	return recs, nil
}
