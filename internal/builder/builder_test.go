package builder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"skein/internal/builder"
	"skein/internal/discover"
	"skein/internal/logging"
)

type phonemizerFunc func(ctx context.Context, text string, languages []string) ([]string, error)

func (f phonemizerFunc) Phonemize(ctx context.Context, text string, languages []string) ([]string, error) {
	return f(ctx, text, languages)
}

func letterPhones(_ context.Context, text string, _ []string) ([]string, error) {
	return strings.Split(strings.ReplaceAll(text, " ", ""), ""), nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func write(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func fixedRows(rows [][]int64) func(string) ([][]int64, error) {
	return func(string) ([][]int64, error) { return rows, nil }
}

func TestBuildManifestGroup(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "wavs", "a.npy"))

	group := discover.Group{
		Name:      "speaker1",
		Source:    discover.ManifestSource,
		Languages: []string{"en"},
		Members: []discover.Member{{
			Path:      filepath.Join(dir, "wavs", "a.wav"),
			Text:      "Hello {noise} world",
			HasText:   true,
			Languages: []string{"en"},
		}},
	}

	var gotLanguages []string
	b := builder.New(phonemizerFunc(func(ctx context.Context, text string, languages []string) ([]string, error) {
		gotLanguages = languages
		return []string{"HH", "AH"}, nil
	}), logging.NewNop())
	b.WithFeatureLoader(fixedRows([][]int64{{1, 2}, {3, 4}}))

	record := b.Build(context.Background(), group)

	if record.Source != discover.ManifestSource || record.Name != "speaker1" {
		t.Fatalf("unexpected record identity: %+v", record)
	}
	if len(record.Sentences) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(record.Sentences))
	}
	sentence := record.Sentences[0]
	if sentence.Text != "Hello world" {
		t.Fatalf("text not sanitized: %q", sentence.Text)
	}
	if !reflect.DeepEqual(sentence.Phones, []string{"HH", "AH"}) {
		t.Fatalf("unexpected phones: %v", sentence.Phones)
	}
	if len(sentence.Semantics) != 2 || !reflect.DeepEqual(sentence.Semantics[1].Values, []int64{3, 4}) {
		t.Fatalf("semantics rows not kept in order: %+v", sentence.Semantics)
	}
	if !reflect.DeepEqual(gotLanguages, []string{"en"}) {
		t.Fatalf("member languages not passed to phonemizer: %v", gotLanguages)
	}
}

func TestBuildReadsSidecarTranscript(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.npy"))
	write(t, filepath.Join(dir, "a.lab"), "  some text\n")

	group := discover.Group{
		Name:      "g",
		Source:    "tree",
		Languages: []string{"en"},
		Extension: ".lab",
		Members: []discover.Member{{
			Path:      filepath.Join(dir, "a.npy"),
			Languages: []string{"en"},
		}},
	}

	b := builder.New(phonemizerFunc(letterPhones), logging.NewNop())
	b.WithFeatureLoader(fixedRows([][]int64{{9}}))

	record := b.Build(context.Background(), group)
	if len(record.Sentences) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(record.Sentences))
	}
	if record.Sentences[0].Text != "some text" {
		t.Fatalf("sidecar text mishandled: %q", record.Sentences[0].Text)
	}
}

func TestBuildIsolatesMemberFailures(t *testing.T) {
	dir := t.TempDir()
	// valid member
	touch(t, filepath.Join(dir, "ok.npy"))
	write(t, filepath.Join(dir, "ok.lab"), "fine")
	// feature file present but transcript missing
	touch(t, filepath.Join(dir, "notext.npy"))
	// feature file missing entirely: only the transcript exists
	write(t, filepath.Join(dir, "nofeature.lab"), "orphan")

	member := func(name string) discover.Member {
		return discover.Member{Path: filepath.Join(dir, name), Languages: []string{"en"}}
	}
	group := discover.Group{
		Name:      "g",
		Source:    "tree",
		Languages: []string{"en"},
		Extension: ".lab",
		Members:   []discover.Member{member("nofeature.npy"), member("ok.npy"), member("notext.npy")},
	}

	b := builder.New(phonemizerFunc(letterPhones), logging.NewNop())
	b.WithFeatureLoader(fixedRows([][]int64{{1}}))

	record := b.Build(context.Background(), group)
	if len(record.Sentences) != 1 {
		t.Fatalf("expected exactly the valid member, got %d sentences", len(record.Sentences))
	}
	if record.Sentences[0].Text != "fine" {
		t.Fatalf("wrong member survived: %q", record.Sentences[0].Text)
	}
}

func TestBuildSkipsOnPhonemizerAndLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.npy"))
	write(t, filepath.Join(dir, "a.lab"), "text")

	group := discover.Group{
		Name:      "g",
		Extension: ".lab",
		Members:   []discover.Member{{Path: filepath.Join(dir, "a.npy")}},
	}

	b := builder.New(phonemizerFunc(func(context.Context, string, []string) ([]string, error) {
		return nil, errors.New("converter crashed")
	}), logging.NewNop())
	b.WithFeatureLoader(fixedRows([][]int64{{1}}))
	if record := b.Build(context.Background(), group); len(record.Sentences) != 0 {
		t.Fatalf("expected no sentences on phonemizer failure, got %d", len(record.Sentences))
	}

	b = builder.New(phonemizerFunc(letterPhones), logging.NewNop())
	b.WithFeatureLoader(func(string) ([][]int64, error) {
		return nil, errors.New("malformed array")
	})
	if record := b.Build(context.Background(), group); len(record.Sentences) != 0 {
		t.Fatalf("expected no sentences on loader failure, got %d", len(record.Sentences))
	}
}

func TestBuildEmptyGroupStillYieldsRecord(t *testing.T) {
	group := discover.Group{
		Name:      "all-failed",
		Source:    "tree",
		Languages: []string{"en"},
		Extension: ".lab",
		Members:   []discover.Member{{Path: filepath.Join(t.TempDir(), "gone.npy")}},
	}

	b := builder.New(phonemizerFunc(letterPhones), logging.NewNop())
	record := b.Build(context.Background(), group)
	if record == nil {
		t.Fatal("expected a record even when every member failed")
	}
	if record.Name != "all-failed" || len(record.Sentences) != 0 {
		t.Fatalf("unexpected record: %+v", record)
	}
}
