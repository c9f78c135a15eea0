package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	pdfUTF8Family = "ExportSans"
	pdfCoreFamily = "Arial"
)

// PDFFormatter renders with the TrueType font at fontPath. Without it the core
// Arial font is used and text is translated to cp1252, which covers Turkish
// letters except ğ, ı and ş.
type PDFFormatter struct {
	fontPath string
}

func NewPDFFormatter(fontPath string) *PDFFormatter {
	return &PDFFormatter{fontPath: fontPath}
}

func (pf *PDFFormatter) Format(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.AddPage()

	family := pdfCoreFamily
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if pf.fontAvailable() {
		pdf.AddUTF8Font(pdfUTF8Family, "", pf.fontPath)
		pdf.AddUTF8Font(pdfUTF8Family, "B", pf.fontPath)
		pdf.AddUTF8Font(pdfUTF8Family, "I", pf.fontPath)
		family = pdfUTF8Family
		tr = func(s string) string { return s }
	}

	pdf.SetFont(family, "B", 18)
	pdf.MultiCell(0, 9, tr(doc.Title), "", "", false)
	pdf.Ln(4)

	for _, s := range doc.Sections {
		heading(pdf, family, tr(s.Heading))
		pdf.SetFont(family, "", 11)
		pdf.MultiCell(0, 6, tr(s.Body), "", "", false)
		pdf.Ln(3)
	}

	if len(doc.Sources) > 0 {
		heading(pdf, family, tr(sourcesHeading))
		for _, src := range doc.Sources {
			pdf.SetFont(family, "B", 10)
			pdf.CellFormat(0, 5, tr(src.Label()), "", 1, "", false, 0, "")
			pdf.SetFont(family, "I", 10)
			pdf.MultiCell(0, 5, tr(src.Text), "L", "", false)
			pdf.Ln(2)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) fontAvailable() bool {
	if pf.fontPath == "" {
		return false
	}
	_, err := os.Stat(pf.fontPath)
	return err == nil
}

func heading(pdf *gofpdf.Fpdf, family, text string) {
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(0, 8, text, "", 1, "", false, 0, "")
	pdf.Ln(1)
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
