package projects

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type reply struct {
	repo *Repo
	err  error
}

// gatedFetcher blocks every call until the test releases a reply for that
// identifier.
type gatedFetcher struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan reply
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: make(map[string]chan reply)}
}

func (f *gatedFetcher) gate(id string) chan reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[id]
	if !ok {
		ch = make(chan reply, 1)
		f.gates[id] = ch
	}
	return ch
}

func (f *gatedFetcher) FetchRepo(ctx context.Context, id string) (*Repo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	r := <-f.gate(id)
	return r.repo, r.err
}

func (f *gatedFetcher) release(id string, repo *Repo, err error) {
	f.gate(id) <- reply{repo: repo, err: err}
}

func (f *gatedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitDone(t *testing.T, c *Card) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("card %s did not settle", c.Identifier())
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCardStartsLoadingAndSettlesOnce(t *testing.T) {
	f := newGatedFetcher()
	c := NewCard(context.Background(), f, "walter-ryan/portfolio", Overrides{})

	if v := c.View(); v.Status != StatusLoading {
		t.Fatalf("expected loading, got %s", v.Status)
	}

	f.release("walter-ryan/portfolio", &Repo{Name: "portfolio", HTMLURL: "https://x"}, nil)
	waitDone(t, c)

	v := c.View()
	if v.Status != StatusLoaded {
		t.Fatalf("expected loaded, got %s", v.Status)
	}
	if v.Error != "" {
		t.Errorf("loaded card should carry no error, got %q", v.Error)
	}
	if f.callCount() != 1 {
		t.Errorf("expected 1 fetch, got %d", f.callCount())
	}
}

func TestCardDerivedFields(t *testing.T) {
	repo := &Repo{Name: "foo", Description: "bar", HTMLURL: "https://x", Language: "Go", Homepage: "  "}

	tests := []struct {
		name      string
		overrides Overrides
		wantName  string
		wantDesc  string
	}{
		{"no overrides", Overrides{}, "foo", "bar"},
		{"title override", Overrides{Title: "Custom"}, "Custom", "bar"},
		{"description override", Overrides{Description: "Mine"}, "foo", "Mine"},
		{"whitespace override kept", Overrides{Title: " "}, " ", "bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatedFetcher()
			c := NewCard(context.Background(), f, "a/b", tt.overrides)
			f.release("a/b", repo, nil)
			waitDone(t, c)

			v := c.View()
			if v.Name != tt.wantName {
				t.Errorf("name = %q, want %q", v.Name, tt.wantName)
			}
			if v.Description != tt.wantDesc {
				t.Errorf("description = %q, want %q", v.Description, tt.wantDesc)
			}
			if v.URL != "https://x" {
				t.Errorf("url = %q", v.URL)
			}
			if v.Homepage != "" {
				t.Errorf("blank homepage should be dropped, got %q", v.Homepage)
			}
			if v.Language != "Go" {
				t.Errorf("language = %q", v.Language)
			}
		})
	}
}

func TestCardFetchFailure(t *testing.T) {
	f := newGatedFetcher()
	c := NewCard(context.Background(), f, "a/b", Overrides{Title: "Custom"})
	f.release("a/b", nil, errors.New("boom: 500 internal detail"))
	waitDone(t, c)

	v := c.View()
	if v.Status != StatusError {
		t.Fatalf("expected error, got %s", v.Status)
	}
	if v.Error != LoadErrorMessage {
		t.Errorf("expected generic message, got %q", v.Error)
	}
	if v.Name != "" {
		t.Errorf("failed card should not expose a name, got %q", v.Name)
	}
}

func TestCardInvalidIdentifierSkipsFetch(t *testing.T) {
	f := newGatedFetcher()
	for _, id := range []string{"", "noslash", "../../etc", "a/b/c"} {
		c := NewCard(context.Background(), f, id, Overrides{})
		waitDone(t, c)
		if c.View().Status != StatusError {
			t.Errorf("identifier %q: expected error state", id)
		}
	}
	if f.callCount() != 0 {
		t.Errorf("invalid identifiers reached the fetcher %d times", f.callCount())
	}
}

func TestCardSameIdentifierIsNoop(t *testing.T) {
	f := newGatedFetcher()
	c := NewCard(context.Background(), f, "a/b", Overrides{})
	c.SetIdentifier("a/b")
	f.release("a/b", &Repo{Name: "b"}, nil)
	waitDone(t, c)

	if f.callCount() != 1 {
		t.Errorf("expected 1 fetch, got %d", f.callCount())
	}
}

func TestCardDiscardsStaleResultAfterNewLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := newGatedFetcher()

	c := NewCard(context.Background(), f, "owner/a", Overrides{}, WithMetrics(m))
	c.SetIdentifier("owner/b")

	f.release("owner/b", &Repo{Name: "b"}, nil)
	waitDone(t, c)

	f.release("owner/a", &Repo{Name: "a"}, nil)
	waitFor(t, "stale result", func() bool { return testutil.ToFloat64(m.stale) == 1 })

	v := c.View()
	if v.Identifier != "owner/b" || v.Name != "b" {
		t.Errorf("stale response leaked: %+v", v)
	}
}

func TestCardDiscardsStaleResultWhileLoading(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := newGatedFetcher()

	c := NewCard(context.Background(), f, "owner/a", Overrides{}, WithMetrics(m))
	c.SetIdentifier("owner/b")

	f.release("owner/a", nil, errors.New("late failure"))
	waitFor(t, "stale result", func() bool { return testutil.ToFloat64(m.stale) == 1 })

	if v := c.View(); v.Status != StatusLoading {
		t.Fatalf("stale failure clobbered loading state: %s", v.Status)
	}

	f.release("owner/b", &Repo{Name: "b"}, nil)
	waitDone(t, c)
	if v := c.View(); v.Status != StatusLoaded || v.Name != "b" {
		t.Errorf("unexpected view %+v", v)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("loaded")); got != 1 {
		t.Errorf("loaded fetches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("error")); got != 0 {
		t.Errorf("error fetches = %v, want 0", got)
	}
}

func TestCardKeepsWhitespaceFetchedName(t *testing.T) {
	f := newGatedFetcher()
	c := NewCard(context.Background(), f, "a/b", Overrides{})
	f.release("a/b", &Repo{Name: " ", HTMLURL: "https://x"}, nil)
	waitDone(t, c)

	if v := c.View(); v.Name != " " {
		t.Errorf("name = %q, want the fetched value unchanged", v.Name)
	}
}
