package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
		{"zero chunk size", 0, 0},
		{"negative chunk size", -5, 0},
		{"negative overlap", 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chunkSize, tt.overlap)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New(%d, %d) = %v, want ErrInvalidConfig", tt.chunkSize, tt.overlap, err)
			}
		})
	}
}

func TestSplit_DegenerateInput(t *testing.T) {
	s := mustSplitter(t, 1000, 200)

	if got := s.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}

	text := "A short permit notice."
	chunks := s.Split(text)
	if len(chunks) != 1 || chunks[0] != text {
		t.Errorf("Split(short text) = %v, want the whole text as one chunk", chunks)
	}
}

func TestSplit_Coverage(t *testing.T) {
	// Concatenating chunks with the overlap stripped must reconstruct the
	// input exactly.
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		text      string
	}{
		{"paragraphs", 80, 20, repeatParagraphs(40)},
		{"no separators at all", 50, 10, strings.Repeat("x", 1234)},
		{"single spaces", 64, 16, strings.Repeat("word ", 300)},
		{"multibyte runes", 30, 5, strings.Repeat("Wärmedämmung für Gebäude. ", 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSplitter(t, tt.chunkSize, tt.overlap)
			chunks := s.Split(tt.text)
			if len(chunks) == 0 {
				t.Fatal("no chunks produced")
			}
			var b strings.Builder
			for i, c := range chunks {
				r := []rune(c)
				if i == 0 {
					b.WriteString(c)
				} else {
					b.WriteString(string(r[tt.overlap:]))
				}
				if i < len(chunks)-1 && len(r) > tt.chunkSize {
					t.Errorf("chunk %d has %d runes, ceiling is %d", i, len(r), tt.chunkSize)
				}
			}
			if b.String() != tt.text {
				t.Errorf("reconstruction differs from input (got %d runes, want %d)",
					len([]rune(b.String())), len([]rune(tt.text)))
			}
		})
	}
}

func TestSplit_OverlapInvariant(t *testing.T) {
	s := mustSplitter(t, 100, 25)
	text := repeatParagraphs(60)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-25:])
		head := string(cur[:25])
		if tail != head {
			t.Errorf("chunks %d/%d: tail %q != head %q", i-1, i, tail, head)
		}
	}
}

func TestSplit_PrefersLargestBoundary(t *testing.T) {
	// A paragraph break inside the budget must win over the later sentence
	// and word boundaries.
	text := "First paragraph about permits.\n\nSecond paragraph about incentives. " +
		strings.Repeat("More filler text follows here. ", 10)
	s := mustSplitter(t, 60, 10)
	chunks := s.Split(text)
	if !strings.HasSuffix(chunks[0], "permits.\n\n") {
		t.Errorf("first chunk should end at the paragraph break, got %q", chunks[0])
	}
}

func TestSplit_SentenceBoundaryFallback(t *testing.T) {
	// No paragraph or line breaks: sentence ends should be chosen before
	// plain spaces.
	text := "Heritage rules apply here. Submit the form early. Expect a review period. Plan accordingly."
	s := mustSplitter(t, 40, 8)
	chunks := s.Split(text)
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, ". ") {
			t.Errorf("chunk %d should end at a sentence boundary, got %q", i, c)
		}
	}
}

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", size, overlap, err)
	}
	return s
}

func repeatParagraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("Renovation permits are issued by the local building authority. ")
		if i%3 == 2 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
