package formatter

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", doc.Title)
	for _, s := range doc.Sections {
		fmt.Fprintf(&buf, "\n## %s\n\n%s\n", s.Heading, s.Body)
	}

	if len(doc.Sources) > 0 {
		fmt.Fprintf(&buf, "\n## %s\n\n", sourcesHeading)
		for _, src := range doc.Sources {
			// Quote every line so multi-line fragments stay inside their item.
			quoted := strings.ReplaceAll(src.Text, "\n", "\n> ")
			fmt.Fprintf(&buf, "**%s**\n> %s\n\n", src.Label(), quoted)
		}
		buf.Truncate(buf.Len() - 1)
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
