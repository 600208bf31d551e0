package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if crawlerPagesTotal == nil || crawlerBytesTotal == nil || crawlerInFlight == nil ||
		crawlerFetchDurationSeconds == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObservePage(t *testing.T) {
	Init()
	TrackSites([]string{"https://pages.test/"})

	before := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues("pages.test", StatusStored))
	beforeBytes := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues("pages.test"))

	ObservePage("https://Pages.test/a", StatusStored, 128)
	ObservePage("https://pages.test/b", StatusFetchError, 0)

	if got := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues("pages.test", StatusStored)); got != before+1 {
		t.Errorf("expected stored counter %f, got %f", before+1, got)
	}
	if got := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues("pages.test")); got != beforeBytes+128 {
		t.Errorf("expected bytes counter %f, got %f", beforeBytes+128, got)
	}
	if got := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues("pages.test", StatusFetchError)); got < 1 {
		t.Errorf("expected fetch_error counter to be incremented, got %f", got)
	}
}

func TestObservePageBucketsUntrackedHosts(t *testing.T) {
	Init()
	TrackSites([]string{"https://seed.test/start", "http://%"})

	beforeOther := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues(OtherSite, StatusStored))
	beforeOtherBytes := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues(OtherSite))
	beforeSeed := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues("seed.test", StatusStored))

	ObservePage("https://external-1.test/a", StatusStored, 10)
	ObservePage("https://external-2.test/b", StatusStored, 5)
	ObservePage("https://seed.test/c", StatusStored, 1)

	if got := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues(OtherSite, StatusStored)); got != beforeOther+2 {
		t.Errorf("expected other counter %f, got %f", beforeOther+2, got)
	}
	if got := testutil.ToFloat64(crawlerBytesTotal.WithLabelValues(OtherSite)); got != beforeOtherBytes+15 {
		t.Errorf("expected other bytes %f, got %f", beforeOtherBytes+15, got)
	}
	if got := testutil.ToFloat64(crawlerPagesTotal.WithLabelValues("seed.test", StatusStored)); got != beforeSeed+1 {
		t.Errorf("expected seed counter %f, got %f", beforeSeed+1, got)
	}
	if _, ok := trackedSites.Load("unknown"); ok {
		t.Error("invalid seed URLs must not be tracked")
	}
}

func TestGaugesAndCounters(t *testing.T) {
	Init()

	SetInFlight(7)
	if got := testutil.ToFloat64(crawlerInFlight); got != 7 {
		t.Errorf("expected in-flight 7, got %f", got)
	}

	before := testutil.ToFloat64(crawlerLinksEnqueuedTotal)
	AddLinksEnqueued(3)
	AddLinksEnqueued(0)
	if got := testutil.ToFloat64(crawlerLinksEnqueuedTotal); got != before+3 {
		t.Errorf("expected links counter %f, got %f", before+3, got)
	}

	workers := testutil.ToFloat64(crawlerActiveWorkers)
	IncActiveWorkers()
	IncActiveWorkers()
	DecActiveWorkers()
	if got := testutil.ToFloat64(crawlerActiveWorkers); got != workers+1 {
		t.Errorf("expected active workers %f, got %f", workers+1, got)
	}

	ObserveFetch(150 * time.Millisecond)
	if n := testutil.CollectAndCount(crawlerFetchDurationSeconds); n != 1 {
		t.Errorf("expected fetch histogram to be collected, got %d", n)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
