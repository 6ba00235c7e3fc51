package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

type leverCategories struct {
	Location     string   `json:"location"`
	AllLocations []string `json:"allLocations"`
}

type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

type leverSalary struct {
	Currency string  `json:"currency"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// leverJob represents a single posting in the Lever API response.
type leverJob struct {
	ID          string          `json:"id"`
	Text        string          `json:"text"`
	Description string          `json:"description"`
	Lists       []leverList     `json:"lists"`
	Categories  leverCategories `json:"categories"`
	SalaryRange *leverSalary    `json:"salaryRange"`
	HostedURL   string          `json:"hostedUrl"`
}

var _ model.RecordSource = (*LeverSource)(nil)

// LeverSource reads a company's Lever postings.
type LeverSource struct {
	companySlug string
	companyName string
	client      *http.Client
	now         func() time.Time
}

// NewLeverSource creates a source for one Lever account.
func NewLeverSource(companySlug, companyName string, client *http.Client) *LeverSource {
	return &LeverSource{
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
		now:         time.Now,
	}
}

func (s *LeverSource) Name() string { return "lever:" + s.companySlug }

// URL is the postings endpoint; rate limiting keys on its host.
func (s *LeverSource) URL() string {
	return fmt.Sprintf("%s/%s?mode=json", leverBaseURL, s.companySlug)
}

// Fetch lists the postings. Lever's lists (requirements, benefits) become the
// record's requirements markup.
func (s *LeverSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := get(ctx, s.client, s.URL())
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", s.companySlug, err)
	}

	var jobs []leverJob
	if err := json.Unmarshal(body, &jobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", s.companySlug, err)
	}

	fetchedAt := s.now().UTC()
	recs := make([]model.RawRecord, 0, len(jobs))
	for _, lj := range jobs {
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		var lists []string
		for _, l := range lj.Lists {
			lists = append(lists, "<h3>"+l.Text+"</h3><ul>"+l.Content+"</ul>")
		}

		recs = append(recs, model.RawRecord{
			NativeID:       lj.ID,
			Title:          lj.Text,
			Company:        s.companyName,
			Location:       location,
			Description:    lj.Description,
			Requirements:   strings.Join(lists, "\n"),
			SalaryRange:    formatSalary(lj.SalaryRange),
			SourcePlatform: "lever",
			SourceURL:      lj.HostedURL,
			CapturedAt:     fetchedAt,
		})
	}
	return recs, nil
}

func formatSalary(s *leverSalary) string {
	if s == nil || (s.Min == 0 && s.Max == 0) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%s %.0f - %.0f", s.Currency, s.Min, s.Max))
}
