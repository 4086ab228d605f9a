package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/trailpeak/api/internal/model"
)

// BuildReceiptPDF renders a booking receipt. The filename is safe for a
// Content-Disposition header.
func BuildReceiptPDF(booking *model.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	tourName := "-"
	if booking.Tour != nil && booking.Tour.Name != "" {
		tourName = booking.Tour.Name
	}
	customer := "-"
	email := "-"
	if booking.User != nil {
		if booking.User.Name != "" {
			customer = booking.User.Name
		}
		if booking.User.Email != "" {
			email = booking.User.Email
		}
	}
	status := "UNPAID"
	if booking.Paid {
		status = "PAID"
	}
	booked := "-"
	if !booking.CreatedAt.IsZero() {
		booked = booking.CreatedAt.Format("2006-01-02 15:04")
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference : %s", booking.Reference),
		fmt.Sprintf("Tour      : %s", tourName),
		fmt.Sprintf("Customer  : %s", customer),
		fmt.Sprintf("Email     : %s", email),
		fmt.Sprintf("Booked    : %s", booked),
		fmt.Sprintf("Amount    : $%.2f", booking.Price),
		fmt.Sprintf("Status    : %s", status),
		fmt.Sprintf("Issued    : %s", time.Now().Format("2006-01-02 15:04")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Thank you for booking with Trailpeak. Keep this receipt for your records.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	ref := booking.Reference
	if ref == "" {
		ref = "receipt"
	}
	filename := fmt.Sprintf("RECEIPT_%s.pdf", safeFilenamePart(ref))
	return buf.Bytes(), filename, nil
}

func safeFilenamePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
