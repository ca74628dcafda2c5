package projects

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Spec configures one card slot.
type Spec struct {
	Repo      string
	Overrides Overrides
}

// Board holds the project cards in display order.
type Board struct {
	ctx     context.Context
	fetcher Fetcher
	opts    []CardOption

	mu    sync.RWMutex
	cards []*Card
}

func NewBoard(ctx context.Context, fetcher Fetcher, specs []Spec, opts ...CardOption) *Board {
	b := &Board{ctx: ctx, fetcher: fetcher, opts: opts}
	b.Configure(specs)
	return b
}

// Configure applies a new slot list. Slots whose repository is unchanged
// keep their card and result; changed slots switch identifier, which
// invalidates any fetch still in flight for the old one.
func (b *Board) Configure(specs []Spec) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cards := make([]*Card, len(specs))
	for i, spec := range specs {
		if i < len(b.cards) {
			card := b.cards[i]
			card.SetOverrides(spec.Overrides)
			card.SetIdentifier(spec.Repo)
			cards[i] = card
			continue
		}
		cards[i] = NewCard(b.ctx, b.fetcher, spec.Repo, spec.Overrides, b.opts...)
	}
	b.cards = cards
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cards)
}

// View returns the view for slot, or false when out of range.
func (b *Board) View(slot int) (View, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if slot < 0 || slot >= len(b.cards) {
		return View{}, false
	}
	return b.cards[slot].View(), true
}

func (b *Board) Views() []View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	views := make([]View, len(b.cards))
	for i, card := range b.cards {
		views[i] = card.View()
	}
	return views
}

// Wait blocks until every card has settled or ctx is done.
func (b *Board) Wait(ctx context.Context) error {
	b.mu.RLock()
	pending := make([]<-chan struct{}, len(b.cards))
	for i, card := range b.cards {
		pending[i] = card.Done()
	}
	b.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, done := range pending {
		g.Go(func() error {
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}
