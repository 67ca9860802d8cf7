package converter

import (
	"strings"
	"testing"
)

func BenchmarkConvertDocument(b *testing.B) {
	conv, err := New(Options{})
	if err != nil {
		b.Fatalf("failed to create converter: %v", err)
	}

	input := []byte("<html><body>" + strings.Repeat(roundTripHTML, 20) + "</body></html>")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := conv.Convert(input); err != nil {
			b.Fatalf("convert failed: %v", err)
		}
	}
}

func BenchmarkConvertDeepNesting(b *testing.B) {
	conv, err := New(Options{})
	if err != nil {
		b.Fatalf("failed to create converter: %v", err)
	}

	input := []byte(strings.Repeat("<blockquote><ul><li>", 50) + "x" + strings.Repeat("</li></ul></blockquote>", 50))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := conv.Convert(input); err != nil {
			b.Fatalf("convert failed: %v", err)
		}
	}
}

func BenchmarkConvertWideList(b *testing.B) {
	conv, err := New(Options{})
	if err != nil {
		b.Fatalf("failed to create converter: %v", err)
	}

	input := []byte("<ol>" + strings.Repeat("<li>x</li>", 5000) + "</ol>")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := conv.Convert(input); err != nil {
			b.Fatalf("convert failed: %v", err)
		}
	}
}
