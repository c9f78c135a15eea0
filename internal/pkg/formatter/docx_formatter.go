package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(d Document) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	title := doc.AddParagraph()
	title.SetStyle("Title")
	title.AddRun().AddText(d.Title)

	for _, s := range d.Sections {
		addHeading(doc, s.Heading)
		addLines(doc, s.Body)
	}

	if len(d.Sources) > 0 {
		addHeading(doc, sourcesHeading)
		for _, src := range d.Sources {
			p := doc.AddParagraph()
			label := p.AddRun()
			label.Properties().SetBold(true)
			label.AddText(src.Label() + " ")
			body := p.AddRun()
			body.Properties().SetItalic(true)
			for i, line := range strings.Split(src.Text, "\n") {
				if i > 0 {
					body.AddBreak()
				}
				body.AddText(line)
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("save docx: %w", err)
	}
	return buf.Bytes(), nil
}

func addHeading(doc *document.Document, text string) {
	p := doc.AddParagraph()
	p.SetStyle("Heading1")
	p.AddRun().AddText(text)
}

func addLines(doc *document.Document, body string) {
	for _, line := range strings.Split(body, "\n") {
		doc.AddParagraph().AddRun().AddText(line)
	}
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
