package tickets

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var ErrEmptyPayload = errors.New("qr payload is empty")

// Renderer produces the printable forms of a ticket.
type Renderer interface {
	GenerateQR(payload string) ([]byte, error)
	PDF(t *Ticket) ([]byte, error)
}

type renderer struct {
	qrSize int
}

func NewRenderer() Renderer {
	return &renderer{qrSize: 256}
}

// GenerateQR encodes payload as a PNG image.
func (r *renderer) GenerateQR(payload string) ([]byte, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyPayload
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, r.qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func (r *renderer) PDF(t *Ticket) ([]byte, error) {
	png, err := r.GenerateQR(t.QRPayload)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("E-Ticket "+t.BookingRef, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Ref: "+t.BookingRef)
	pdf.Ln(10)

	lines := []string{
		"Passenger : " + safe(t.PassengerName, "-"),
		"Phone     : " + safe(t.PassengerPhone, "-"),
		"Ticket    : " + strings.ToUpper(safe(t.TicketType, "adult")),
		"From      : " + safe(t.BoardingCity, "-"),
		"To        : " + safe(t.AlightingCity, "-"),
		"Departure : " + t.DepartureTime.Format("2006-01-02 15:04"),
		"Arrival   : " + t.EstimatedArrival.Format("2006-01-02 15:04") + " (est.)",
		"Seat      : " + seatLabel(t.SeatNumber),
		"Trip      : " + safe(t.TripRef, "-"),
		"Paid      : " + formatAmount(t.AmountPaid, t.Currency) + " / " + formatAmount(t.TotalAmount, t.Currency),
	}
	if t.MeetingPoint != "" {
		lines = append(lines, "Meet at   : "+t.MeetingPoint)
	}
	if t.IssuedBy != "" {
		lines = append(lines, "Issued by : "+t.IssuedBy)
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 44, pdf.GetY()+4, 60, 60, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + 68)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Valid for one passenger on the segment shown. Present this code when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func seatLabel(n int) string {
	if n <= 0 {
		return "free seating"
	}
	return fmt.Sprintf("%d", n)
}

// formatAmount prints minor units with thousands separators, e.g. "12 500 XOF".
func formatAmount(v int64, currency string) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%d", v)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, digits[i])
	}
	s := string(out)
	if neg {
		s = "-" + s
	}
	if currency != "" {
		s += " " + currency
	}
	return s
}
