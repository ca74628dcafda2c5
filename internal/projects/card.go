// Package projects loads public repository metadata for the project cards
// shown on the portfolio page.
package projects

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
)

// LoadErrorMessage is what visitors see when a card fails to load.
// The underlying failure is only logged.
const LoadErrorMessage = "Could not load project info"

var ErrInvalidIdentifier = errors.New("invalid repository identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9-]+/[A-Za-z0-9._-]+$`)

// Status is the lifecycle state of a card.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusLoaded:
		return "loaded"
	}
	return "unknown"
}

// Repo is the subset of the repository API response a card renders.
type Repo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Language    string `json:"language"`
	Homepage    string `json:"homepage"`
}

// Overrides replace fetched fields when non-empty.
type Overrides struct {
	Title       string `json:"title,omitempty" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Fetcher resolves an identifier such as "owner/name" to its metadata.
type Fetcher interface {
	FetchRepo(ctx context.Context, identifier string) (*Repo, error)
}

// View is a render-ready snapshot of a card.
type View struct {
	Identifier  string
	Status      Status
	Name        string
	Description string
	URL         string
	Language    string
	Homepage    string
	Error       string
}

func (v View) Loading() bool { return v.Status == StatusLoading }
func (v View) Failed() bool { return v.Status == StatusError }
func (v View) Loaded() bool { return v.Status == StatusLoaded }

// ValidIdentifier reports whether id looks like "owner/name".
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

type CardOption func(*Card)

// WithMetrics records fetch outcomes on m.
func WithMetrics(m *Metrics) CardOption {
	return func(c *Card) { c.metrics = m }
}

// Card tracks a single repository fetch. Every identifier change starts a
// new generation; results that come back for an older generation are
// dropped so they can never overwrite the current state.
type Card struct {
	ctx       context.Context
	fetcher   Fetcher
	overrides Overrides
	metrics   *Metrics

	mu         sync.Mutex
	identifier string
	generation uint64
	status     Status
	repo       *Repo
	errMsg     string
	done       chan struct{}
}

// NewCard creates a card in the loading state and issues its fetch.
func NewCard(ctx context.Context, fetcher Fetcher, identifier string, overrides Overrides, opts ...CardOption) *Card {
	c := &Card{
		ctx:       ctx,
		fetcher:   fetcher,
		overrides: overrides,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	c.startLocked(identifier)
	c.mu.Unlock()
	return c
}

// SetIdentifier points the card at a different repository. Passing the
// current identifier is a no-op.
func (c *Card) SetIdentifier(identifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if identifier == c.identifier {
		return
	}
	c.startLocked(identifier)
}

// SetOverrides replaces the caller-supplied title and description.
func (c *Card) SetOverrides(o Overrides) {
	c.mu.Lock()
	c.overrides = o
	c.mu.Unlock()
}

// Identifier returns the repository the card currently tracks.
func (c *Card) Identifier() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identifier
}

// Done is closed once the current generation has settled. A later
// SetIdentifier hands out a new channel.
func (c *Card) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// View derives the display fields for the current state.
func (c *Card) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{Identifier: c.identifier, Status: c.status}
	switch c.status {
	case StatusError:
		v.Error = c.errMsg
	case StatusLoaded:
		v.Name = firstNonEmpty(c.overrides.Title, c.repo.Name)
		v.Description = firstNonEmpty(c.overrides.Description, c.repo.Description)
		v.URL = c.repo.HTMLURL
		v.Language = c.repo.Language
		v.Homepage = strings.TrimSpace(c.repo.Homepage)
	}
	return v
}

// startLocked must be called with c.mu held.
func (c *Card) startLocked(identifier string) {
	c.generation++
	gen := c.generation
	c.identifier = identifier
	c.status = StatusLoading
	c.repo = nil
	c.errMsg = ""
	c.done = make(chan struct{})

	if !ValidIdentifier(identifier) {
		log.Printf("Project card %q: %v", identifier, ErrInvalidIdentifier)
		c.failLocked()
		return
	}

	go c.fetch(gen, identifier)
}

func (c *Card) fetch(gen uint64, identifier string) {
	start := time.Now()
	repo, err := c.fetcher.FetchRepo(c.ctx, identifier)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.metrics.observeStale()
		return
	}

	if err == nil && repo == nil {
		err = ErrMalformedBody
	}
	if err != nil {
		log.Printf("Error loading project %s: %v", identifier, err)
		c.metrics.observeFetch(false, elapsed)
		c.failLocked()
		return
	}

	c.metrics.observeFetch(true, elapsed)
	c.repo = repo
	c.status = StatusLoaded
	close(c.done)
}

func (c *Card) failLocked() {
	c.status = StatusError
	c.errMsg = LoadErrorMessage
	close(c.done)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
