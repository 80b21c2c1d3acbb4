// pkg/aero/cache.go
package aero

import lru "github.com/hashicorp/golang-lru/v2"

// CachingProvider wraps a Provider and memoizes AirportByICAO lookups in
// a bounded LRU, avoiding a repeated database hit for the same ICAO code
// across many machine-protocol "departure"/"destination" commands (or
// repeated CLI invocations) against one long-running backing Provider.
// Every other Provider method is forwarded unchanged via embedding.
type CachingProvider struct {
	Provider
	cache *lru.Cache[string, Airport]
}

// NewCachingProvider wraps inner with an LRU airport cache holding up to
// size entries. Provider data is read-only for the engine's lifetime
// (spec.md §6.1), so there is no invalidation path to wire.
func NewCachingProvider(inner Provider, size int) *CachingProvider {
	c, _ := lru.New[string, Airport](size)
	return &CachingProvider{Provider: inner, cache: c}
}

func (p *CachingProvider) AirportByICAO(icao string) (Airport, bool) {
	if a, ok := p.cache.Get(icao); ok {
		return a, true
	}
	a, ok := p.Provider.AirportByICAO(icao)
	if ok {
		p.cache.Add(icao, a)
	}
	return a, ok
}
