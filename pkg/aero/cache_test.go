package aero

import "testing"

type countingProvider struct {
	*TestProvider
	lookups int
}

func (p *countingProvider) AirportByICAO(icao string) (Airport, bool) {
	p.lookups++
	return p.TestProvider.AirportByICAO(icao)
}

func TestCachingProviderMemoizesHits(t *testing.T) {
	inner := &countingProvider{TestProvider: NewTestProvider()}
	inner.Airports["LSZH"] = Airport{ICAO: "LSZH"}
	cp := NewCachingProvider(inner, 8)

	for i := 0; i < 3; i++ {
		if _, ok := cp.AirportByICAO("LSZH"); !ok {
			t.Fatal("expected a hit")
		}
	}
	if inner.lookups != 1 {
		t.Fatalf("inner lookups = %d, want 1", inner.lookups)
	}
}

func TestCachingProviderDoesNotCacheMisses(t *testing.T) {
	inner := &countingProvider{TestProvider: NewTestProvider()}
	cp := NewCachingProvider(inner, 8)

	for i := 0; i < 2; i++ {
		if _, ok := cp.AirportByICAO("ZZZZ"); ok {
			t.Fatal("expected a miss")
		}
	}
	if inner.lookups != 2 {
		t.Fatalf("inner lookups = %d, want 2 (misses should not be cached)", inner.lookups)
	}
}
