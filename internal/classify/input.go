package classify

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxDescriptionRunes = 600

// ErrUnavailable marks a stage result that is only the safe default because the
// classification service could not be reached. Unparsable output is not reported this way.
var ErrUnavailable = errors.New("classification service unavailable")

func unavailable(stage string, err error) error {
	return fmt.Errorf("%s: %w: %w", stage, ErrUnavailable, err)
}

// Input is the article text every classification stage sees.
type Input struct {
	Title       string
	Description string
}

func writeArticles(b *strings.Builder, items []Input) {
	for i, it := range items {
		writeArticle(b, i+1, it)
		b.WriteString("\n")
	}
}

func writeArticle(b *strings.Builder, n int, it Input) {
	fmt.Fprintf(b, "Article %d:\nTitle: %s\n", n, oneLine(it.Title))
	if d := oneLine(it.Description); d != "" {
		fmt.Fprintf(b, "Description: %s\n", clip(d, maxDescriptionRunes))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// normalizeMatrix aligns a model result to n rows, padding with empty rows.
func normalizeMatrix(rows [][]string, n int) [][]string {
	out := make([][]string, n)
	for i := range out {
		if i < len(rows) && rows[i] != nil {
			out[i] = rows[i]
		} else {
			out[i] = []string{}
		}
	}
	return out
}
