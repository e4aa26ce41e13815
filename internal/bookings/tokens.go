package bookings

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const (
	referenceLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	shareTokenLength = 12
)

func randomLetters(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceLetters))))
		if err != nil {
			return "", err
		}
		out[i] = referenceLetters[num.Int64()]
	}
	return string(out), nil
}

// newBookingReference returns BUS-YYYYMMDD-XXXXXX.
func newBookingReference(now time.Time) (string, error) {
	suffix, err := randomLetters(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BUS-%s-%s", now.Format("20060102"), suffix), nil
}

func newTicketToken() string {
	return uuid.New().String()
}

func newShareToken() (string, error) {
	return randomLetters(shareTokenLength)
}

// QRPayload is the stable identity encoded in a ticket's QR code.
func QRPayload(bookingRef, ticketToken, tripRef string) string {
	return fmt.Sprintf("TICKET:%s|TOKEN:%s|TRIP:%s", bookingRef, ticketToken, tripRef)
}

// ShareURL is the public link for a share token.
func ShareURL(baseURL, token string) string {
	return fmt.Sprintf("%s/ticket/share/%s", baseURL, token)
}
