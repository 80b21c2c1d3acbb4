package routegraph

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// tileDTO is Graph's on-disk shape (spec.md §6.6's "precomputed graph
// blob"): the unexported out/identIndex fields are flattened to exported
// ones msgpack can see, and identIndex is rebuilt on load rather than
// serialized, since it is fully derived from Vertices.
type tileDTO struct {
	Vertices   []Vertex
	Edges      [][]Edge
	Dep, Dest  int
}

// SaveTile persists g to path as a zstd-compressed msgpack blob.
func SaveTile(path string, g *Graph) error {
	dto := tileDTO{Vertices: g.Vertices, Edges: g.out, Dep: g.Dep, Dest: g.Dest}
	raw, err := msgpack.Marshal(&dto)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// LoadTile reads back a blob written by SaveTile. The caller is
// responsible for checking the tile still matches the current
// Configuration — no version or bounding-box check is stored in the blob
// itself.
func LoadTile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	var dto tileDTO
	if err := msgpack.Unmarshal(raw, &dto); err != nil {
		return nil, err
	}

	g := NewGraph()
	g.Vertices = dto.Vertices
	g.out = dto.Edges
	g.Dep, g.Dest = dto.Dep, dto.Dest
	for idx, v := range g.Vertices {
		key := strings.ToUpper(v.Ident)
		g.identIndex[key] = append(g.identIndex[key], idx)
	}
	return g, nil
}
