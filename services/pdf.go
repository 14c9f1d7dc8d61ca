package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ItineraryPDF is everything printed on an itinerary document.
type ItineraryPDF struct {
	TravelerName string
	TripTitle    string
	Destination  string
	StartDate    string
	EndDate      string
	Budget       string // preformatted, e.g. "1200.00 EUR"
	Plan         ItineraryPlan
	GeneratedAt  time.Time
}

// RenderItineraryPDF lays out a trip plan on A4 pages and returns the document bytes.
func RenderItineraryPDF(data ItineraryPDF) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8,
			fmt.Sprintf("Trip Planner itinerary  |  Not a booking confirmation  |  Page %d", pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(170, 10, tr(orDefault(data.TripTitle, "Your Trip")), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, tr(data.Plan.Destination), "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+tr(title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(45, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(125, 7, tr(value), "", 1, "L", false, 0, "")
	}

	// ── Trip Overview ─────────────────────────────────────────
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	sectionHeader("Trip Overview")
	row("Traveler", orDefault(data.TravelerName, "Guest Traveler"))
	row("Destination", orDefault(data.Destination, data.Plan.Destination))
	if data.StartDate != "" {
		row("Dates", fmtDateReadable(data.StartDate)+" - "+fmtDateReadable(data.EndDate))
	}
	if data.Budget != "" {
		row("Budget", data.Budget)
	}
	if data.Plan.EstimatedDailyCost > 0 {
		row("Est. daily cost", fmt.Sprintf("%.0f %s", data.Plan.EstimatedDailyCost, orDefault(data.Plan.Currency, "USD")))
	}
	row("Generated", generated.Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	// ── Days ──────────────────────────────────────────────────
	for _, day := range data.Plan.Days {
		title := fmt.Sprintf("Day %d: %s", day.Day, day.Title)
		if day.Date != "" {
			title += "  (" + fmtDateReadable(day.Date) + ")"
		}
		sectionHeader(title)
		for _, a := range day.Activities {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(212, 168, 67)
			pdf.CellFormat(18, 6, tr(a.Time), "", 0, "L", false, 0, "")
			pdf.SetTextColor(20, 20, 20)
			heading := a.Title
			if a.EstimatedCost > 0 {
				heading += fmt.Sprintf("  ~%.0f %s", a.EstimatedCost, orDefault(data.Plan.Currency, "USD"))
			}
			pdf.CellFormat(152, 6, tr(heading), "", 1, "L", false, 0, "")
			if a.Description != "" {
				pdf.SetX(38)
				pdf.SetFont("Helvetica", "", 9)
				pdf.SetTextColor(80, 80, 80)
				pdf.MultiCell(152, 4.5, tr(a.Description), "", "L", false)
			}
			pdf.Ln(1)
		}
		pdf.Ln(3)
	}

	// ── Tips ──────────────────────────────────────────────────
	if len(data.Plan.Tips) > 0 {
		sectionHeader("Travel Tips")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		for _, tip := range data.Plan.Tips {
			pdf.MultiCell(170, 5, tr("- "+tip), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
