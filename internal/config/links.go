package config

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/danmuck/linkctl/internal/expand"
	"github.com/danmuck/linkctl/internal/graph"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ExpandedLink is a concrete desired connection from an output port name to
// an input port name.
type ExpandedLink struct {
	Src graph.PortName
	Dst graph.PortName
}

func (l ExpandedLink) String() string {
	return fmt.Sprintf("%q -> %q", l.Src, l.Dst)
}

// CompareLinks orders links by (src, dst).
func CompareLinks(a, b ExpandedLink) int {
	if c := cmp.Compare(a.Src, b.Src); c != 0 {
		return c
	}
	return cmp.Compare(a.Dst, b.Dst)
}

// Normalize expands every NamedLink and zips src/dst expansions position by
// position, preserving configuration order.
func Normalize(links []NamedLink) ([]ExpandedLink, error) {
	out := make([]ExpandedLink, 0, len(links))
	for _, link := range links {
		srcs, err := expand.Expand(link.Src)
		if err != nil {
			return nil, err
		}
		dsts, err := expand.Expand(link.Dst)
		if err != nil {
			return nil, err
		}
		if len(srcs) != len(dsts) {
			return nil, fmt.Errorf(
				"%w: src %q expands to %d names, dst %q expands to %d",
				ErrCardinality, link.Src, len(srcs), link.Dst, len(dsts),
			)
		}
		for i := range srcs {
			out = append(out, ExpandedLink{
				Src: graph.PortName(srcs[i]),
				Dst: graph.PortName(dsts[i]),
			})
		}
	}
	return out, nil
}

// FromExpanded builds a document listing links without patterns, sorted and
// de-duplicated.
func FromExpanded(links []ExpandedLink) Config {
	sorted := slices.Clone(links)
	slices.SortFunc(sorted, CompareLinks)
	sorted = slices.Compact(sorted)
	cfg := Config{Links: make([]NamedLink, 0, len(sorted))}
	for _, link := range sorted {
		cfg.Links = append(cfg.Links, NamedLink{Src: string(link.Src), Dst: string(link.Dst)})
	}
	return cfg
}

// Encode writes cfg to w in the given format.
func Encode(w io.Writer, cfg Config, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(cfg)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}
