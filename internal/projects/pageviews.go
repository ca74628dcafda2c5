package projects

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultViewTTL bounds how long a page view's cards stay reachable for
// polling after the page was rendered.
const DefaultViewTTL = 2 * time.Minute

type pageView struct {
	board     *Board
	expires   time.Time
	delivered []bool
}

// PageViews gives every rendered page its own set of cards, so each page
// load fetches afresh and nothing outlives the view that asked for it.
// A view is dropped once every card's settled state has been delivered,
// or when its TTL runs out.
type PageViews struct {
	ctx     context.Context
	fetcher Fetcher
	opts    []CardOption
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	views map[string]*pageView
}

func NewPageViews(ctx context.Context, fetcher Fetcher, ttl time.Duration, opts ...CardOption) *PageViews {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	return &PageViews{
		ctx:     ctx,
		fetcher: fetcher,
		opts:    opts,
		ttl:     ttl,
		now:     time.Now,
		views:   make(map[string]*pageView),
	}
}

// Open starts the cards for a new page view and returns its token.
func (p *PageViews) Open(specs []Spec) (string, *Board) {
	token := newViewToken()
	board := NewBoard(p.ctx, p.fetcher, specs, p.opts...)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	p.views[token] = &pageView{
		board:     board,
		expires:   p.now().Add(p.ttl),
		delivered: make([]bool, len(specs)),
	}
	return token, board
}

// Lookup returns the cards of a live page view.
func (p *PageViews) Lookup(token string) (*Board, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	v, ok := p.views[token]
	if !ok {
		return nil, false
	}
	return v.board, true
}

// Delivered records that the settled state of slot has been sent to the
// page. Once every slot has been delivered the view is released.
func (p *PageViews) Delivered(token string, slot int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.views[token]
	if !ok || slot < 0 || slot >= len(v.delivered) {
		return
	}
	v.delivered[slot] = true
	for _, done := range v.delivered {
		if !done {
			return
		}
	}
	delete(p.views, token)
}

// Release forgets a page view. In-flight fetches still finish but their
// results are no longer reachable.
func (p *PageViews) Release(token string) {
	p.mu.Lock()
	delete(p.views, token)
	p.mu.Unlock()
}

// Len reports how many page views are live.
func (p *PageViews) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	return len(p.views)
}

func (p *PageViews) pruneLocked() {
	now := p.now()
	for token, v := range p.views {
		if now.After(v.expires) {
			delete(p.views, token)
		}
	}
}

func newViewToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("projects: reading random view token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
