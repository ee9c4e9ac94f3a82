package quotecache

import (
	"sync"

	"github.com/goquant/quotewatch/internal/model"
)

// Cache stores the latest quote per (symbol, venue). Writes are scoped to a
// single symbol, so contention stays per-key; a symbol-level mutex guards
// each venue map.
type Cache struct {
	mu      sync.RWMutex
	symbols map[string]*symbolEntry
}

type symbolEntry struct {
	mu     sync.RWMutex
	venues map[string]model.Quote
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		symbols: make(map[string]*symbolEntry),
	}
}

// Put stores a quote, overwriting any previous quote for the same
// (symbol, venue).
func (c *Cache) Put(symbol, venue string, quote model.Quote) {
	entry := c.entry(symbol)
	entry.mu.Lock()
	entry.venues[venue] = quote
	entry.mu.Unlock()
}

// Replace swaps in a full tick's venue set for a symbol. Venues absent from
// the set are dropped, not retained from prior ticks.
func (c *Cache) Replace(symbol string, set model.VenueQuoteSet) {
	venues := make(map[string]model.Quote, len(set))
	for venue, quote := range set {
		venues[venue] = quote
	}

	entry := c.entry(symbol)
	entry.mu.Lock()
	entry.venues = venues
	entry.mu.Unlock()
}

// GetAll returns a copy of the current venue set for a symbol. The copy is
// owned by the caller.
func (c *Cache) GetAll(symbol string) model.VenueQuoteSet {
	c.mu.RLock()
	entry, ok := c.symbols[symbol]
	c.mu.RUnlock()
	if !ok {
		return model.VenueQuoteSet{}
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	set := make(model.VenueQuoteSet, len(entry.venues))
	for venue, quote := range entry.venues {
		set[venue] = quote
	}
	return set
}

// Get returns the latest quote for one (symbol, venue).
func (c *Cache) Get(symbol, venue string) (model.Quote, bool) {
	c.mu.RLock()
	entry, ok := c.symbols[symbol]
	c.mu.RUnlock()
	if !ok {
		return model.Quote{}, false
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	quote, ok := entry.venues[venue]
	return quote, ok
}

// Drop removes all quotes for a symbol.
func (c *Cache) Drop(symbol string) {
	c.mu.Lock()
	delete(c.symbols, symbol)
	c.mu.Unlock()
}

func (c *Cache) entry(symbol string) *symbolEntry {
	c.mu.RLock()
	entry, ok := c.symbols[symbol]
	c.mu.RUnlock()
	if ok {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok = c.symbols[symbol]; ok {
		return entry
	}
	entry = &symbolEntry{venues: make(map[string]model.Quote)}
	c.symbols[symbol] = entry
	return entry
}
