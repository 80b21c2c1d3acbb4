package routegraph

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadTileRoundTrips(t *testing.T) {
	dep, dest := testAirports()
	g, err := NewBuilder(testProvider(), baseParams(dep, dest)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tile.bin")
	if err := SaveTile(path, g); err != nil {
		t.Fatalf("SaveTile: %v", err)
	}

	got, err := LoadTile(path)
	if err != nil {
		t.Fatalf("LoadTile: %v", err)
	}

	if len(got.Vertices) != len(g.Vertices) {
		t.Fatalf("vertex count = %d, want %d", len(got.Vertices), len(g.Vertices))
	}
	if got.Dep != g.Dep || got.Dest != g.Dest {
		t.Fatalf("Dep/Dest = %d/%d, want %d/%d", got.Dep, got.Dest, g.Dep, g.Dest)
	}
	depIdx, ok := got.FindAirport(dep.ICAO)
	if !ok {
		t.Fatal("identIndex not rebuilt: FindAirport failed after LoadTile")
	}
	if depIdx != g.Dep {
		t.Fatalf("FindAirport(%q) = %d, want %d", dep.ICAO, depIdx, g.Dep)
	}
	if len(got.Neighbors(g.Dep)) != len(g.Neighbors(g.Dep)) {
		t.Fatalf("edge count at Dep mismatch after round trip")
	}
}

func TestLoadTileMissingFile(t *testing.T) {
	if _, err := LoadTile(filepath.Join(t.TempDir(), "absent.bin")); err == nil {
		t.Fatal("expected an error for a missing tile file")
	}
}
