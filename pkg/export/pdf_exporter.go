package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 190.0

// SlipLine is one course on a registration slip.
type SlipLine struct {
	Code  string
	Title string
	Unit  int
}

// Slip is the printable proof of a paid course registration.
type Slip struct {
	Reference   string
	StudentName string
	StudentID   string
	Email       string
	Lines       []SlipLine
	TotalUnits  int
	Amount      int64
	Currency    string
	PaidAt      time.Time
}

// PDFExporter renders datasets and slips with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the dataset out as a bordered table under its title.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errNoHeaders
	}
	pdf := newDocument("L")
	if data.Title != "" {
		heading(pdf, data.Title)
	}

	width := 277.0 / float64(len(data.Headers))
	pdf.SetFont("Arial", "B", 10)
	for _, h := range data.Headers {
		pdf.CellFormat(width, 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i := range data.Rows {
		for _, cell := range data.row(i) {
			pdf.CellFormat(width, 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return output(pdf)
}

// RenderSlip produces a one-page registration slip.
func (e *PDFExporter) RenderSlip(slip Slip) ([]byte, error) {
	if slip.Reference == "" || len(slip.Lines) == 0 {
		return nil, fmt.Errorf("slip requires a reference and at least one course")
	}
	pdf := newDocument("P")
	heading(pdf, "Course Registration Slip")

	pdf.SetFont("Arial", "", 10)
	for _, field := range [][2]string{
		{"Reference", slip.Reference},
		{"Student", slip.StudentName},
		{"Student ID", slip.StudentID},
		{"Email", slip.Email},
		{"Paid", slip.PaidAt.UTC().Format("02 Jan 2006 15:04 MST")},
	} {
		if field[1] == "" {
			continue
		}
		pdf.CellFormat(40, 7, field[0], "", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, field[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{35, pageWidth - 35 - 25, 25}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Code", "Title", "Units"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range slip.Lines {
		pdf.CellFormat(widths[0], 7, line.Code, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 7, line.Title, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 7, strconv.Itoa(line.Unit), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1], 8, "Total units", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[2], 8, strconv.Itoa(slip.TotalUnits), "1", 1, "R", false, 0, "")
	pdf.CellFormat(widths[0]+widths[1], 8, "Amount paid", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[2], 8, FormatAmount(slip.Amount, slip.Currency), "1", 1, "R", false, 0, "")
	return output(pdf)
}

// FormatAmount renders a whole-unit amount with thousands separators, e.g. "NGN 7,000".
func FormatAmount(amount int64, currency string) string {
	digits := strconv.FormatInt(amount, 10)
	neg := amount < 0
	if neg {
		digits = digits[1:]
	}
	var b bytes.Buffer
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	s := b.String()
	if neg {
		s = "-" + s
	}
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func newDocument(orientation string) *gofpdf.Fpdf {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	return pdf
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
