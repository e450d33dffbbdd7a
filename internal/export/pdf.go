package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator renders maintenance reports as PDF documents.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	// Content area
	contentWidth float64
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Generate creates a PDF document and writes it to the provided writer.
func (g *PDFGenerator) Generate(ctx context.Context, data *Data, w io.Writer) (int64, error) {
	pdf := fpdf.New("P", "mm", "A4", "")

	pdf.SetTitle("Maintenance Report - "+data.Store.Name, true)
	pdf.SetCreator("Rawatoko Maintenance Platform", true)
	pdf.SetAutoPageBreak(true, 20)

	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, data)
	})

	g.addCoverPage(pdf, data)
	g.addCostSummary(pdf, data)
	g.addFindings(pdf, data)

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	// Write to buffer to count bytes
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Cover Page
// =============================================================================

func (g *PDFGenerator) addCoverPage(pdf *fpdf.Fpdf, data *Data) {
	pdf.AddPage()

	// Header bar
	r, gr, b := HexToRGB(Palette.Header)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 70, "F")

	// Title
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetXY(g.margin, 25)
	pdf.Cell(0, 12, "Facility Maintenance Report")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(g.margin, 42)
	pdf.Cell(0, 8, data.Store.Name)

	// Reset text color for body content
	r, gr, b = HexToRGB(Palette.TextDark)
	pdf.SetTextColor(r, gr, b)

	// Store block
	pdf.SetXY(g.margin, 90)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "STORE")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("%s (%s)", data.Store.Name, data.Store.ID))
	pdf.Ln(7)
	if data.Store.Address != "" {
		pdf.Cell(0, 7, data.Store.Address)
		pdf.Ln(7)
	}

	// Report block
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "REPORT")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	g.addLabelValue(pdf, "Report ID", data.Report.ID.String())
	g.addLabelValue(pdf, "Status", StatusLabel(data.Report.Status))
	g.addLabelValue(pdf, "Filed", FormatDate(data.Report.CreatedAt))
	g.addLabelValue(pdf, "Last Change", FormatDateTime(data.Report.StatusChangedAt))
	if data.Report.RejectionReason != "" {
		g.addLabelValue(pdf, "Rejection Reason", data.Report.RejectionReason)
	}
	if data.Report.EvidenceRef != "" {
		g.addLabelValue(pdf, "Repair Evidence", data.Report.EvidenceRef)
	}
}

// =============================================================================
// Cost Summary
// =============================================================================

func (g *PDFGenerator) addCostSummary(pdf *fpdf.Fpdf, data *Data) {
	pdf.AddPage()
	g.addSectionHeader(pdf, "Cost Summary")

	perArea, total := domain.ComputeTotals(data.Report.Checklist)

	// Table header
	pdf.SetFont("Helvetica", "B", 10)
	r, gr, b := HexToRGB(Palette.TableFill)
	pdf.SetFillColor(r, gr, b)
	pdf.CellFormat(110, 8, "Area", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 8, "Repair Cost", "1", 1, "R", true, 0, "")

	// One row per checklist area, in checklist order
	pdf.SetFont("Helvetica", "", 10)
	for _, entry := range data.Report.Checklist {
		pdf.CellFormat(110, 8, entry.Area, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, perArea[entry.Area].Format(), "1", 1, "R", false, 0, "")
	}

	// Total row
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(r, gr, b)
	pdf.CellFormat(110, 8, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 8, total.Format(), "1", 1, "R", true, 0, "")
}

// =============================================================================
// Findings
// =============================================================================

func (g *PDFGenerator) addFindings(pdf *fpdf.Fpdf, data *Data) {
	pdf.AddPage()
	g.addSectionHeader(pdf, "Inspection Findings")

	if len(data.Report.Checklist) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.Cell(0, 10, "No areas were recorded on this report.")
		return
	}

	for i, entry := range data.Report.Checklist {
		// Leave room for at least the entry header
		if pdf.GetY() > 230 {
			pdf.AddPage()
		}

		g.addEntry(pdf, entry, i+1)

		if i < len(data.Report.Checklist)-1 {
			pdf.Ln(8)
			r, gr, b := HexToRGB(Palette.Border)
			pdf.SetDrawColor(r, gr, b)
			pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
			pdf.Ln(8)
		}
	}
}

func (g *PDFGenerator) addEntry(pdf *fpdf.Fpdf, entry domain.ChecklistAreaEntry, number int) {
	// Severity indicator block for damaged areas
	if entry.Condition == domain.ConditionDamaged {
		r, gr, b := HexToRGB(SeverityColor(entry.Severity))
		pdf.SetFillColor(r, gr, b)
		pdf.Rect(g.margin, pdf.GetY(), 4, 8, "F")
	}

	pdf.SetX(g.margin + 8)
	pdf.SetFont("Helvetica", "B", 12)
	r, gr, b := HexToRGB(Palette.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 8, fmt.Sprintf("Area #%d: %s", number, entry.Area))
	pdf.Ln(10)

	// Condition line, colored by severity for damaged areas
	pdf.SetX(g.margin + 8)
	pdf.SetFont("Helvetica", "", 10)
	if entry.Condition == domain.ConditionDamaged {
		r, gr, b = HexToRGB(SeverityColor(entry.Severity))
		pdf.SetTextColor(r, gr, b)
		pdf.Cell(0, 6, fmt.Sprintf("Condition: %s (%s)", ConditionLabel(entry.Condition), SeverityLabel(entry.Severity)))
	} else {
		pdf.Cell(0, 6, "Condition: "+ConditionLabel(entry.Condition))
	}
	pdf.Ln(8)

	r, gr, b = HexToRGB(Palette.TextDark)
	pdf.SetTextColor(r, gr, b)

	// Inspection note
	if entry.Note != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, "Note:")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(g.contentWidth, 5, entry.Note, "", "L", false)
		pdf.Ln(4)
	}

	// Photo references
	if len(entry.Photos) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Photos (%d):", len(entry.Photos)))
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 9)
		r, gr, b = HexToRGB(Palette.TextMuted)
		pdf.SetTextColor(r, gr, b)
		for _, ref := range entry.Photos {
			pdf.Cell(0, 5, ref)
			pdf.Ln(5)
		}
		r, gr, b = HexToRGB(Palette.TextDark)
		pdf.SetTextColor(r, gr, b)
		pdf.Ln(2)
	}

	// Repair items table
	if len(entry.Items) > 0 {
		g.addItemsTable(pdf, entry.Items)
	}
}

func (g *PDFGenerator) addItemsTable(pdf *fpdf.Fpdf, items []domain.RepairItem) {
	pdf.SetFont("Helvetica", "B", 9)
	r, gr, b := HexToRGB(Palette.TableFill)
	pdf.SetFillColor(r, gr, b)
	pdf.CellFormat(75, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(15, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(45, 7, "Subtotal", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	var areaTotal domain.Money
	for _, item := range items {
		pdf.CellFormat(75, 7, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, item.UnitPrice.Format(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 7, item.Subtotal().Format(), "1", 1, "R", false, 0, "")
		areaTotal = areaTotal.Add(item.Subtotal())
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(r, gr, b)
	pdf.CellFormat(135, 7, "Area Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 7, areaTotal.Format(), "1", 1, "R", true, 0, "")
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	r, gr, b := HexToRGB(Palette.Header)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(10)

	r, gr, b = HexToRGB(Palette.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addLabelValue(pdf *fpdf.Fpdf, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(40, 6, label+":")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth-40, 6, value, "", "L", false)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, data *Data) {
	pdf.SetY(-15)

	r, gr, b := HexToRGB(Palette.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	r, gr, b = HexToRGB(Palette.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)

	pdf.Cell(0, 10, "Generated: "+FormatDateTime(data.GeneratedAt))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

var _ Generator = (*PDFGenerator)(nil)
