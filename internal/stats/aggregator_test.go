package stats

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/anteater/internal/model"
	"github.com/nao1215/anteater/internal/simhash"
	"github.com/nao1215/anteater/internal/tokenize"
)

// TestRecordPage tests the unique set and the longest page.
func TestRecordPage(t *testing.T) {
	t.Parallel()

	a := NewAggregator()

	if !a.RecordPage("https://www.ics.uci.edu/a", 120) {
		t.Error("first page should be new")
	}
	if a.RecordPage("https://www.ics.uci.edu/a#section", 50) {
		t.Error("fragment variant should not be new")
	}
	if !a.RecordPage("https://www.ics.uci.edu/b", 300) {
		t.Error("second page should be new")
	}
	a.RecordPage("https://www.ics.uci.edu/c", 200)

	if a.UniqueCount() != 3 {
		t.Errorf("UniqueCount() = %d, want 3", a.UniqueCount())
	}
	want := model.LongestPage{URL: "https://www.ics.uci.edu/b", TokenCount: 300}
	if a.LongestPage() != want {
		t.Errorf("LongestPage() = %+v, want %+v", a.LongestPage(), want)
	}
}

// TestRecordSubdomain tests per-host counting and scope.
func TestRecordSubdomain(t *testing.T) {
	t.Parallel()

	a := NewAggregator(WithScope(func(host string) bool {
		return host != "evil.com"
	}))

	a.RecordSubdomain("https://Vision.ICS.uci.edu/a")
	a.RecordSubdomain("https://vision.ics.uci.edu/b")
	a.RecordSubdomain("https://www.stat.uci.edu/")
	a.RecordSubdomain("https://evil.com/")
	a.RecordSubdomain("http://[::1")
	a.RecordSubdomain("/relative")

	want := []model.SubdomainCount{
		{Host: "vision.ics.uci.edu", Count: 2},
		{Host: "www.stat.uci.edu", Count: 1},
	}
	if got := a.Subdomains(); !slices.Equal(got, want) {
		t.Errorf("Subdomains() = %v, want %v", got, want)
	}
}

// TestCheckFingerprint tests duplicate detection through the aggregator.
func TestCheckFingerprint(t *testing.T) {
	t.Parallel()

	a := NewAggregator()
	table := tokenize.Table{"research": 4, "faculty": 2, "students": 3}
	fp := simhash.Compute(table)

	if a.CheckFingerprint(fp) {
		t.Error("first fingerprint should not be a duplicate")
	}
	if !a.CheckFingerprint(simhash.Compute(table.Clone())) {
		t.Error("identical fingerprint should be a duplicate")
	}
	if a.Fingerprints() != 1 {
		t.Errorf("Fingerprints() = %d, want 1", a.Fingerprints())
	}

	strict := NewAggregator(WithFingerprintStore(simhash.NewStore(simhash.WithThreshold(1.0))))
	strict.CheckFingerprint(0)
	if strict.CheckFingerprint(1) {
		t.Error("custom store threshold should be honored")
	}
}

// TestReport tests report assembly.
func TestReport(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(
		WithStopwords(tokenize.Stopwords{"the": {}}),
		WithStartTime(start),
	)

	a.RecordParsed()
	a.RecordParsed()
	a.RecordParsed()
	a.RecordPage("https://ics.uci.edu/", 10)
	a.MergeFrequencies(tokenize.Table{"the": 9, "uci": 4, "ics": 4, "crawler": 1})
	a.MergeFrequencies(tokenize.Table{"crawler": 5})
	a.RecordSubdomain("https://ics.uci.edu/")
	a.RecordRejection(model.OutcomeDuplicate)
	a.RecordRejection(model.OutcomeLowQuality)
	a.RecordRejection(model.OutcomeFetchFailure)

	r := a.Report(2)

	if r.PagesParsed != 3 || r.UniquePages != 1 {
		t.Errorf("counts = %d parsed, %d unique", r.PagesParsed, r.UniquePages)
	}
	wantTop := []tokenize.Entry{{Token: "crawler", Count: 6}, {Token: "ics", Count: 4}}
	if !slices.Equal(r.TopWords, wantTop) {
		t.Errorf("TopWords = %v, want %v", r.TopWords, wantTop)
	}
	if r.Rejections.Duplicates != 1 || r.Rejections.LowQuality != 1 || r.Rejections.FetchFailures != 1 {
		t.Errorf("Rejections = %+v", r.Rejections)
	}
	if !r.StartedAt.Equal(start) || r.FinishedAt.Before(start) {
		t.Errorf("unexpected times %v - %v", r.StartedAt, r.FinishedAt)
	}
	if len(r.Subdomains) != 1 {
		t.Errorf("Subdomains = %v", r.Subdomains)
	}

	if all := a.Report(0); len(all.TopWords) != 3 {
		t.Errorf("expected all 3 non-stopwords, got %v", all.TopWords)
	}
}

// TestFrequenciesIsCopy tests that callers cannot mutate internal state.
func TestFrequenciesIsCopy(t *testing.T) {
	t.Parallel()

	a := NewAggregator()
	a.MergeFrequencies(tokenize.Table{"uci": 1})

	f := a.Frequencies()
	f["uci"] = 100

	if a.Frequencies()["uci"] != 1 {
		t.Error("Frequencies() should return a copy")
	}
}

// TestConcurrentUpdates tests that concurrent workers lose no updates.
func TestConcurrentUpdates(t *testing.T) {
	t.Parallel()

	a := NewAggregator()
	const workers = 20
	const pagesPerWorker = 25

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range pagesPerWorker {
				u := fmt.Sprintf("https://w%d.ics.uci.edu/p%d", w, p)
				a.RecordParsed()
				if a.RecordPage(u, w*pagesPerWorker+p) {
					a.MergeFrequencies(tokenize.Table{"page": 1})
					a.RecordSubdomain(u)
				}
			}
		}()
	}
	wg.Wait()

	total := workers * pagesPerWorker
	if a.PagesParsed() != total {
		t.Errorf("PagesParsed() = %d, want %d", a.PagesParsed(), total)
	}
	if a.UniqueCount() != total {
		t.Errorf("UniqueCount() = %d, want %d", a.UniqueCount(), total)
	}
	if got := a.Frequencies()["page"]; got != total {
		t.Errorf("frequency = %d, want %d", got, total)
	}
	if got := a.LongestPage().TokenCount; got != total-1 {
		t.Errorf("longest = %d, want %d", got, total-1)
	}
	if len(a.Subdomains()) != workers {
		t.Errorf("expected %d subdomains, got %d", workers, len(a.Subdomains()))
	}
}
