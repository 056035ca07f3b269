package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const (
	pageMargin = 15.0
	qrSize     = 30.0
	qrPixels   = 256
)

func newDocument(title string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(title, true)
	pdf.SetCreator("invoicedesk", true)
	// core fonts are cp1252; customer and product names are utf-8
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

// InvoicePDF writes a one-invoice document with an id QR code in the header.
func InvoicePDF(w io.Writer, inv Invoice, company Company) error {
	pdf, tr := newDocument("Invoice " + inv.ID)
	pdf.AddPage()

	qr, err := qrcode.Encode(inv.ID, qrcode.Medium, qrPixels)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	imgOpts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("invoice-qr", imgOpts, bytes.NewReader(qr))
	pageW, _ := pdf.GetPageSize()
	pdf.ImageOptions("invoice-qr", pageW-pageMargin-qrSize, pageMargin, qrSize, qrSize, false, imgOpts, 0, "")

	name := company.Name
	if name == "" {
		name = "Invoice"
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{company.Address, company.Email, company.Phone} {
		if strings.TrimSpace(line) != "" {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.SetY(pageMargin + qrSize + 5)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "INVOICE", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	meta := [][2]string{
		{"Invoice", inv.ID},
		{"Customer", inv.Customer},
		{"Date", inv.Date.Format("02 Jan 2006")},
		{"Status", strings.ToUpper(inv.Status)},
	}
	for _, kv := range meta {
		pdf.CellFormat(30, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{80, 25, 37.5, 37.5}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 238, 245)
	for i, h := range []string{"Item", "Qty", "Unit price", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range inv.Lines {
		pdf.CellFormat(widths[0], 7, tr(line.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, Quantity(line.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, Money("", line.Price), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, Money("", line.Subtotal), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	totals := [][2]string{
		{"Total", Money(company.Currency, inv.Total)},
		{"Cash", Money(company.Currency, inv.CashPayment)},
		{"Online", Money(company.Currency, inv.OnlinePayment)},
		{"Amount paid", Money(company.Currency, inv.AmountPaid)},
		{"Amount owed", Money(company.Currency, inv.AmountOwed)},
	}
	for i, kv := range totals {
		style := ""
		if i == 0 || i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 7, kv[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, kv[1], "", 1, "R", false, 0, "")
	}

	if note := strings.TrimSpace(company.FooterNote); note != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, tr(note), "T", "C", false)
	}

	return pdf.Output(w)
}

// ActivityPDF writes the activity log as a table, newest entries first as given.
func ActivityPDF(w io.Writer, rows []ActivityRow, generatedAt time.Time) error {
	pdf, tr := newDocument("Activity log")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Activity log", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - %d entries", generatedAt.UTC().Format("02 Jan 2006 15:04 MST"), len(rows)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	widths := []float64{38, 50, 20, 72}
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 238, 245)
		for i, h := range []string{"When", "User", "Type", "Action"} {
			pdf.CellFormat(widths[i], 7, h, "B", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for _, row := range rows {
		if pdf.GetY() > pageH-25 {
			pdf.AddPage()
			header()
		}
		action := row.Action
		if len(action) > 70 {
			action = action[:67] + "..."
		}
		pdf.CellFormat(widths[0], 6, row.CreatedAt.UTC().Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(row.Actor), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, row.Type, "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, tr(action), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
