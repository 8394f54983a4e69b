package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/danmuck/linkctl/internal/expand"
	"github.com/danmuck/linkctl/internal/testutil/testlog"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadLinksYAML(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "links.yaml", `
links:
  - src: "mic_{FL,FR}"
    dst: "rec_{1..2}"
  - src: player
    dst: speaker
`)
	got, err := LoadLinks(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []ExpandedLink{
		{Src: "mic_FL", Dst: "rec_1"},
		{Src: "mic_FR", Dst: "rec_2"},
		{Src: "player", Dst: "speaker"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestLoadLinksTOML(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "links.toml", `
[[links]]
src = "out_{0..1}"
dst = "in_{a,b}"
`)
	got, err := LoadLinks(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []ExpandedLink{{Src: "out_0", Dst: "in_a"}, {Src: "out_1", Dst: "in_b"}}
	if !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	testlog.Start(t)
	yamlPath := writeFile(t, "links.yml", "links:\n  - src: a\n    dst: b\n    sink: c\n")
	if _, err := Load(yamlPath); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected yaml unknown field rejection, got %v", err)
	}
	tomlPath := writeFile(t, "links.toml", "[[links]]\nsrc = \"a\"\ndst = \"b\"\nsink = \"c\"\n")
	if _, err := Load(tomlPath); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected toml unknown field rejection, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	testlog.Start(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrLoad) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing-file load error, got %v", err)
	}
	bad := writeFile(t, "bad.yaml", "links: [\n")
	if _, err := Load(bad); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected malformed document error, got %v", err)
	}
	noDst := writeFile(t, "nodst.yaml", "links:\n  - src: a\n")
	if _, err := Load(noDst); err == nil || !strings.Contains(err.Error(), "missing dst") {
		t.Fatalf("expected missing dst error, got %v", err)
	}
	braces := writeFile(t, "braces.yaml", "links:\n  - src: \"a{\"\n    dst: b\n")
	if _, err := LoadLinks(braces); !errors.Is(err, expand.ErrUnclosedBrace) || !errors.Is(err, ErrLoad) {
		t.Fatalf("expected expansion error, got %v", err)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "empty.yaml", "")
	links, err := LoadLinks(path)
	if err != nil {
		t.Fatalf("empty document: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links, got %v", links)
	}
}

func TestNormalizeCardinalityMismatch(t *testing.T) {
	testlog.Start(t)
	_, err := Normalize([]NamedLink{{Src: "a{1..3}", Dst: "b{x,y}"}})
	if !errors.Is(err, ErrCardinality) {
		t.Fatalf("expected cardinality error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"a{1..3}"`) || !strings.Contains(err.Error(), `"b{x,y}"`) {
		t.Fatalf("error should name both patterns: %v", err)
	}
}

func TestNormalizeKeepsEqualCardinality(t *testing.T) {
	testlog.Start(t)
	links := []NamedLink{
		{Src: "a{1..4}", Dst: "b{5..8}"},
		{Src: "x", Dst: "y{}"},
	}
	got, err := Normalize(links)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for _, link := range links {
		srcs, _ := expand.Expand(link.Src)
		dsts, _ := expand.Expand(link.Dst)
		if len(srcs) != len(dsts) {
			t.Fatalf("accepted link with mismatched expansion: %+v", link)
		}
	}
	if len(got) != 5 || got[3] != (ExpandedLink{Src: "a4", Dst: "b8"}) {
		t.Fatalf("unexpected expansion: %v", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	testlog.Start(t)
	links := []ExpandedLink{
		{Src: "z_out", Dst: "a_in"},
		{Src: "a_out", Dst: "b_in"},
		{Src: "a_out", Dst: "a_in"},
		{Src: "a_out", Dst: "a_in"},
	}
	want := []ExpandedLink{
		{Src: "a_out", Dst: "a_in"},
		{Src: "a_out", Dst: "b_in"},
		{Src: "z_out", Dst: "a_in"},
	}
	for _, format := range []Format{FormatYAML, FormatTOML} {
		var buf bytes.Buffer
		if err := Encode(&buf, FromExpanded(links), format); err != nil {
			t.Fatalf("encode %s: %v", format, err)
		}
		cfg, err := Decode(buf.Bytes(), format)
		if err != nil {
			t.Fatalf("decode %s: %v\n%s", format, err, buf.String())
		}
		got, err := Normalize(cfg.Links)
		if err != nil {
			t.Fatalf("normalize %s: %v", format, err)
		}
		if !slices.Equal(got, want) {
			t.Fatalf("%s round trip got=%v want=%v", format, got, want)
		}
		testlog.Logf("config/encode: %s\n%s", format, buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	testlog.Start(t)
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Fatalf("yml: %v %v", f, err)
	}
	if f, err := ParseFormat("toml"); err != nil || f != FormatTOML {
		t.Fatalf("toml: %v %v", f, err)
	}
	if _, err := ParseFormat("json"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	if FormatFromPath("a/b.TOML") != FormatTOML || FormatFromPath("links") != FormatYAML {
		t.Fatalf("unexpected path format detection")
	}
}

func TestTemplatesDecode(t *testing.T) {
	testlog.Start(t)
	for _, format := range []Format{FormatYAML, FormatTOML} {
		body, err := Template(format)
		if err != nil {
			t.Fatalf("template %s: %v", format, err)
		}
		cfg, err := Decode([]byte(body), format)
		if err != nil {
			t.Fatalf("decode template %s: %v", format, err)
		}
		links, err := Normalize(cfg.Links)
		if err != nil || len(links) != 3 {
			t.Fatalf("template %s links=%v err=%v", format, links, err)
		}
	}

	path := filepath.Join(t.TempDir(), "links.yaml")
	if err := WriteTemplate(path, FormatYAML, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, FormatYAML, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, FormatTOML, true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
}
