// Package geo infers a canonical country for a posting.
//
// Rules are evaluated in a fixed order and the first hit wins:
//
//  1. URL rules. The site's own locale routing (ar.computrabajo.com,
//     pe.linkedin.com) is the most reliable signal.
//  2. Gazetteer over location and description text, cities before countries
//     before regions.
//  3. model.CountryUnknown.
package geo

import (
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/taxonomy"
	"github.com/amishk599/jobpipe/internal/textmatch"
)

// Layer names the rule layer that produced a country.
type Layer string

const (
	LayerURL       Layer = "url"
	LayerGazetteer Layer = "gazetteer"
	LayerFallback  Layer = "fallback"
)

// Decision explains a resolution.
type Decision struct {
	Country  string
	Layer    Layer
	Evidence string // the rule pattern or keyword that matched
}

type place struct {
	phrase  textmatch.Phrase
	country string
}

// Resolver holds compiled URL rules and the gazetteer in lookup order.
type Resolver struct {
	urlRules []taxonomy.URLRule
	places   []place
}

// NewResolver compiles tax. Gazetteer entries are ordered by kind so that a
// city hit is never shadowed by a broader country or region keyword, and
// within a kind longest keyword first, so "santiago de cali" is tried before
// "santiago". Equal lengths keep declaration order.
func NewResolver(tax *taxonomy.Taxonomy) *Resolver {
	r := &Resolver{}
	for _, u := range tax.URLRules {
		r.urlRules = append(r.urlRules, taxonomy.URLRule{
			Host:    strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u.Host), "www.")),
			Path:    strings.ToLower(strings.TrimSpace(u.Path)),
			Country: u.Country,
		})
	}

	entries := slices.Clone(tax.Gazetteer)
	slices.SortStableFunc(entries, func(a, b taxonomy.Place) int {
		if d := a.Kind.Rank() - b.Kind.Rank(); d != 0 {
			return d
		}
		return utf8.RuneCountInString(strings.TrimSpace(b.Keyword)) - utf8.RuneCountInString(strings.TrimSpace(a.Keyword))
	})
	for _, e := range entries {
		p := textmatch.Compile(e.Keyword)
		if p.Text() == "" {
			continue
		}
		r.places = append(r.places, place{phrase: p, country: e.Country})
	}
	return r
}

// Resolve returns the country for a posting. It never returns free text:
// the result is a gazetteer or URL rule country, or model.CountryUnknown.
func (r *Resolver) Resolve(sourceURL, location, description string) string {
	return r.Explain(sourceURL, location, description).Country
}

// Explain is Resolve plus the layer and evidence behind the answer.
func (r *Resolver) Explain(sourceURL, location, description string) Decision {
	if host, rest := splitURL(sourceURL); host != "" || rest != "" {
		for _, u := range r.urlRules {
			if u.Host != "" && !strings.HasPrefix(host, u.Host) {
				continue
			}
			if u.Path != "" && !strings.Contains(rest, u.Path) {
				continue
			}
			return Decision{Country: u.Country, Layer: LayerURL, Evidence: u.Host + u.Path}
		}
	}

	text := textmatch.Lower(location + " " + description)
	for _, p := range r.places {
		if p.phrase.In(text) {
			return Decision{Country: p.country, Layer: LayerGazetteer, Evidence: p.phrase.Text()}
		}
	}
	return Decision{Country: model.CountryUnknown, Layer: LayerFallback}
}

// splitURL returns the lower-cased host without "www." and the path plus
// query. Scheme-less URLs are accepted.
func splitURL(raw string) (host, rest string) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	if u.Host == "" && u.Scheme == "" {
		if v, err := url.Parse("//" + raw); err == nil {
			u = v
		}
	}
	rest = u.Path
	if u.RawQuery != "" {
		rest += "?" + u.RawQuery
	}
	return strings.TrimPrefix(u.Hostname(), "www."), rest
}
