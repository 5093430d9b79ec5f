package newscal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"prop-strategy-builder/internal/interfaces"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Source describes one calendar page and where each field sits in a row.
type Source struct {
	URL              string
	RowSelector      string
	TimeSelector     string
	CurrencySelector string
	ImpactSelector   string
	TitleSelector    string
	TimeLayout       string
	Location         *time.Location
}

// Filter keeps events at or above MinImpact, optionally limited to Currencies.
type Filter struct {
	MinImpact  string
	Currencies []string
}

// Scraper fetches an economic calendar page and extracts its events.
type Scraper struct {
	source  Source
	filter  Filter
	timeout time.Duration
}

var _ interfaces.CalendarSource = (*Scraper)(nil)

func NewScraper(source Source, filter Filter, timeout time.Duration) (*Scraper, error) {
	if source.URL == "" {
		return nil, errors.New("news source url is required")
	}
	if source.RowSelector == "" {
		return nil, errors.New("news row selector is required")
	}
	if source.TimeLayout == "" {
		source.TimeLayout = "2006-01-02 15:04"
	}
	if source.Location == nil {
		source.Location = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{source: source, filter: filter, timeout: timeout}, nil
}

// Fetch visits the calendar page once and returns the matching events sorted by time.
func (s *Scraper) Fetch(ctx context.Context) ([]types.NewsEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Fetching economic calendar", "url", s.source.URL)

	var (
		events  []types.NewsEvent
		skipped int
		pageErr error
	)

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(s.source.URL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("User-Agent", userAgent)
	})

	c.OnHTML(s.source.RowSelector, func(e *colly.HTMLElement) {
		ev, ok := s.parseRow(e.DOM)
		if !ok {
			skipped++
			return
		}
		if s.filter.keep(ev) {
			events = append(events, ev)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		pageErr = err
		logger.ErrorWithErr(ctx, "Calendar scraping error", err, "url", r.Request.URL.String(), "status", r.StatusCode)
	})

	if err := c.Visit(s.source.URL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", s.source.URL, err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageErr != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", pageErr)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	logger.Info(ctx, "Economic calendar fetched", "events", len(events), "skipped_rows", skipped)
	return events, nil
}

// parseRow reads one calendar row. Rows without a parseable time are skipped.
func (s *Scraper) parseRow(row *goquery.Selection) (types.NewsEvent, bool) {
	raw := strings.TrimSpace(field(row, s.source.TimeSelector))
	if raw == "" {
		raw = strings.TrimSpace(attr(row, s.source.TimeSelector, "datetime"))
	}
	at, err := time.ParseInLocation(s.source.TimeLayout, raw, s.source.Location)
	if err != nil {
		return types.NewsEvent{}, false
	}

	impact := NormalizeImpact(field(row, s.source.ImpactSelector))
	if impact == "" {
		impact = NormalizeImpact(attr(row, s.source.ImpactSelector, "title") + " " + attr(row, s.source.ImpactSelector, "class"))
	}

	return types.NewsEvent{
		Time:     at.UTC(),
		Currency: strings.ToUpper(strings.TrimSpace(field(row, s.source.CurrencySelector))),
		Impact:   impact,
		Title:    strings.Join(strings.Fields(field(row, s.source.TitleSelector)), " "),
	}, true
}

func field(row *goquery.Selection, sel string) string {
	if sel == "" {
		return ""
	}
	return row.Find(sel).First().Text()
}

func attr(row *goquery.Selection, sel, name string) string {
	if sel == "" {
		return ""
	}
	v, _ := row.Find(sel).First().Attr(name)
	return v
}

var impactRank = map[string]int{"low": 1, "medium": 2, "high": 3}

// NormalizeImpact maps calendar wording ("High Impact Expected", "impact--medium")
// to low, medium or high. Unknown wording yields "".
func NormalizeImpact(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "high"), strings.Contains(s, "red"):
		return "high"
	case strings.Contains(s, "medium"), strings.Contains(s, "moderate"), strings.Contains(s, "orange"):
		return "medium"
	case strings.Contains(s, "low"), strings.Contains(s, "yellow"):
		return "low"
	}
	return ""
}

func (f Filter) keep(ev types.NewsEvent) bool {
	min := impactRank[strings.ToLower(f.MinImpact)]
	if impactRank[ev.Impact] < min {
		return false
	}
	if len(f.Currencies) == 0 {
		return true
	}
	for _, c := range f.Currencies {
		if strings.EqualFold(c, ev.Currency) {
			return true
		}
	}
	return false
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
