package textdata_test

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"skein/internal/textdata"
)

func sampleRecords() []*textdata.Record {
	return []*textdata.Record{
		{
			Source:    "librispeech",
			Name:      "spk1-chap4",
			Languages: []string{"en"},
			Sentences: []textdata.Sentence{
				{
					Text:   "hello world",
					Phones: []string{"HH", "AH", "L", "OW"},
					Semantics: []textdata.Semantics{
						{Values: []int64{1, 2, 3}},
						{Values: []int64{400, 500, 600}},
					},
				},
				{
					Text:      "second",
					Phones:    []string{"S", "EH"},
					Semantics: []textdata.Semantics{{Values: []int64{7}}},
				},
			},
		},
		{
			Source:    "filelist",
			Name:      "speaker2",
			Languages: []string{"zh", "en"},
			Sentences: nil,
		},
		{
			Source: "s",
			Name:   "empty-values",
			Sentences: []textdata.Sentence{
				{Text: "x", Semantics: []textdata.Semantics{{}}},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	w := textdata.NewWriter(&buf)
	for _, rec := range records {
		if err := w.Append(rec); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	r := textdata.NewReader(&buf)
	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d returned error: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("record %d mismatch:\n got %+v\nwant %+v", i, got, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last record, got %v", err)
	}
}

func TestTruncationTolerance(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	w := textdata.NewWriter(&buf)
	for _, rec := range records {
		if err := w.Append(rec); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}
	full := buf.Bytes()

	// Every truncation point must yield only the frames fully written before
	// it, with a clean EOF and no error.
	for cut := 0; cut < len(full); cut++ {
		r := textdata.NewReader(bytes.NewReader(full[:cut]))
		var count int
		for {
			_, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("cut %d: unexpected error: %v", cut, err)
			}
			count++
		}
		if count >= len(records) {
			t.Fatalf("cut %d: read %d records from truncated stream", cut, count)
		}
	}
}

func TestReaderOnEmptyStream(t *testing.T) {
	r := textdata.NewReader(bytes.NewReader(nil))
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	rec := &textdata.Record{Source: "src", Name: "n"}
	payload := rec.Marshal()
	// Unknown varint field 15 appended after known fields.
	payload = append(payload, 0x78, 0x2a)

	got := new(textdata.Record)
	if err := got.Unmarshal(payload); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if got.Source != "src" || got.Name != "n" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestNegativeValuesSurviveRoundTrip(t *testing.T) {
	rec := &textdata.Record{
		Name: "neg",
		Sentences: []textdata.Sentence{
			{Text: "t", Semantics: []textdata.Semantics{{Values: []int64{-1, 0, 9000000000}}}},
		},
	}
	got := new(textdata.Record)
	if err := got.Unmarshal(rec.Marshal()); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !reflect.DeepEqual(got.Sentences[0].Semantics[0].Values, []int64{-1, 0, 9000000000}) {
		t.Fatalf("values mismatch: %+v", got.Sentences[0].Semantics[0].Values)
	}
}
