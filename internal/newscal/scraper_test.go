package newscal

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prop-strategy-builder/internal/types"
)

const calendarPage = `<html><body><table>
<tr class="event"><td class="time">2024-05-03 12:30</td><td class="cur">usd</td><td class="impact" title="High Impact Expected"></td><td class="title">Non-Farm
  Payrolls</td></tr>
<tr class="event"><td class="time">2024-05-03 08:00</td><td class="cur">EUR</td><td class="impact">High</td><td class="title">CPI Flash</td></tr>
<tr class="event"><td class="time">2024-05-03 09:00</td><td class="cur">GBP</td><td class="impact">Medium</td><td class="title">PMI</td></tr>
<tr class="event"><td class="time">All Day</td><td class="cur">JPY</td><td class="impact">Holiday</td><td class="title">Bank Holiday</td></tr>
</table></body></html>`

func calendarServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(calendarPage))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func source(url string) Source {
	return Source{
		URL:              url,
		RowSelector:      "tr.event",
		TimeSelector:     "td.time",
		CurrencySelector: "td.cur",
		ImpactSelector:   "td.impact",
		TitleSelector:    "td.title",
	}
}

func TestFetchFiltersAndSorts(t *testing.T) {
	ts := calendarServer(t)
	s, err := NewScraper(source(ts.URL), Filter{MinImpact: "high"}, 5*time.Second)
	if err != nil {
		t.Fatalf("NewScraper failed: %v", err)
	}

	events, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 high impact events, got %+v", events)
	}
	if events[0].Currency != "EUR" || events[1].Currency != "USD" {
		t.Errorf("Expected EUR then USD, got %s then %s", events[0].Currency, events[1].Currency)
	}
	if events[1].Title != "Non-Farm Payrolls" || events[1].Impact != "high" {
		t.Errorf("Unexpected event %+v", events[1])
	}
	want := time.Date(2024, 5, 3, 12, 30, 0, 0, time.UTC)
	if !events[1].Time.Equal(want) {
		t.Errorf("Expected %v, got %v", want, events[1].Time)
	}
}

func TestFetchCurrencyFilter(t *testing.T) {
	ts := calendarServer(t)
	s, _ := NewScraper(source(ts.URL), Filter{MinImpact: "medium", Currencies: []string{"gbp"}}, 5*time.Second)

	events, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "PMI" {
		t.Errorf("Expected only PMI, got %+v", events)
	}
}

func TestFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	s, _ := NewScraper(source(ts.URL), Filter{}, 5*time.Second)
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Error("Expected error for 404 page")
	}
}

func TestNewScraperRequiresSelectors(t *testing.T) {
	if _, err := NewScraper(Source{URL: "http://x"}, Filter{}, 0); err == nil {
		t.Error("Expected missing row selector error")
	}
	if _, err := NewScraper(Source{RowSelector: "tr"}, Filter{}, 0); err == nil {
		t.Error("Expected missing url error")
	}
}

func TestNormalizeImpact(t *testing.T) {
	tests := map[string]string{
		"High Impact Expected": "high",
		"impact--medium":       "medium",
		"Low":                  "low",
		"icon--ff-impact-red":  "high",
		"Holiday":              "",
	}
	for in, want := range tests {
		if got := NormalizeImpact(in); got != want {
			t.Errorf("NormalizeImpact(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestWriteCSVAndActive(t *testing.T) {
	nfp := time.Date(2024, 5, 3, 12, 30, 0, 0, time.UTC)
	events := []types.NewsEvent{{Time: nfp, Currency: "USD", Impact: "high", Title: "Non-Farm Payrolls, final"}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, events); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	want := "time,currency,impact,title\n2024.05.03 12:30,USD,high,\"Non-Farm Payrolls, final\"\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}

	if got := Active(events, nfp.Add(-20*time.Minute), 30*time.Minute); len(got) != 1 {
		t.Error("Expected event active 20 minutes before")
	}
	if got := Active(events, nfp.Add(31*time.Minute), 30*time.Minute); len(got) != 0 {
		t.Error("Expected event inactive 31 minutes after")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files", "news_blackout.csv")
	if err := WriteFile(path, nil); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "time,currency,impact,title") {
		t.Errorf("Unexpected file content %q", data)
	}
}
