package search

import (
	"testing"

	"github.com/resolv-libs/resolv-data/internal/index"
)

func testIndex() *index.Index {
	return &index.Index{Entries: []index.Entry{
		{ID: "e2", Split: "test", Metadata: &index.MusicTrackMetadata{Composer: "Frédéric Chopin", Title: "Ballade No. 1"}},
		{ID: "e1", Split: "train", Metadata: &index.MusicTrackMetadata{Composer: "Johann Sebastian Bach", Title: "BWV 846", Release: "LP"},
			Files: []index.NamedFile{{Key: "midi"}, {Key: "audio"}}},
		{ID: "bach-chorale-1", Split: "train", Files: []index.NamedFile{{Key: "mxml"}}},
	}}
}

func ids(rs []SearchResult) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Entry.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestKeywordSearch(t *testing.T) {
	docs := Docs(testIndex())
	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{}},
		{"bach", []string{"e1", "bach-chorale-1"}},
		{"BACH train", []string{"e1", "bach-chorale-1"}},
		{"split:train", []string{"bach-chorale-1", "e1"}},
		{"split:test", []string{"e2"}},
		{"composer:bach", []string{"e1"}},
		{"file:audio", []string{"e1"}},
		{"ballade chopin", []string{"e2"}},
		{"bach ballade", []string{}},
		{"lp", []string{"e1"}},
	}
	for _, c := range cases {
		got := ids(KeywordSearch(docs, c.query, 0))
		if !equal(got, c.want) {
			t.Fatalf("KeywordSearch(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}

func TestKeywordSearch_Limit(t *testing.T) {
	got := KeywordSearch(Docs(testIndex()), "e", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestKeywordSearch_Why(t *testing.T) {
	got := KeywordSearch(Docs(testIndex()), "bach midi", 0)
	if len(got) != 1 || got[0].Entry.ID != "e1" {
		t.Fatalf("unexpected results %v", ids(got))
	}
	if got[0].Why != "composer,file" {
		t.Fatalf("unexpected why %q", got[0].Why)
	}
	if got[0].Score != 3 {
		t.Fatalf("unexpected score %v", got[0].Score)
	}
}

func TestDocs(t *testing.T) {
	docs := Docs(testIndex())
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	if docs[1].FileKeys != "midi audio" || docs[1].Release != "LP" {
		t.Fatalf("unexpected doc %+v", docs[1])
	}
	if docs[2].Composer != "" {
		t.Fatalf("entry without metadata should have no composer: %+v", docs[2])
	}
}
