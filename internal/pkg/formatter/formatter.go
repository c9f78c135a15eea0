// Package formatter renders stored answers as downloadable documents.
package formatter

import (
	"fmt"

	"github.com/futig/report-grounder/internal/entity"
)

const sourcesHeading = "Kaynaklar"

// Document is the format-neutral shape of an exported answer.
type Document struct {
	Title    string
	Sections []Section
	Sources  []Source
}

type Section struct {
	Heading string
	Body    string
}

// Source is a report fragment the answer cites.
type Source struct {
	Number   int
	Category entity.Category
	Text     string
}

// Label is the citation prefix of a source, e.g. "[3] (mevzuat)".
func (s Source) Label() string {
	return fmt.Sprintf("[%d] (%s)", s.Number, s.Category)
}

type Formatter interface {
	Format(doc Document) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// AnswerDocument lays out a stored answer for export. sources are the cited
// fragments in citation order and may be empty.
func AnswerDocument(reportID string, questionID int, rec entity.AnswerRecord, sources []Source) Document {
	title := fmt.Sprintf("Rapor %s, Soru %d", reportID, questionID)
	if questionID == entity.CustomQuestionID {
		title = fmt.Sprintf("Rapor %s, Özel Soru", reportID)
	}

	yordam := rec.Yordam
	if yordam == "" {
		yordam = "-"
	}

	return Document{
		Title: title,
		Sections: []Section{
			{Heading: "Soru", Body: rec.Soru},
			{Heading: "Yordam", Body: yordam},
			{Heading: "Cevap", Body: rec.Cevap},
		},
		Sources: sources,
	}
}

// Factory picks a formatter per export format. The PDF formatter embeds the
// TrueType font at fontPath when it exists.
type Factory struct {
	fontPath string
}

func NewFactory(fontPath string) *Factory {
	return &Factory{fontPath: fontPath}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(f.fontPath), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", entity.ErrInvalidParameter, format)
	}
}
