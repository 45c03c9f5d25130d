package artifact

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRPayload is the JSON encoded into a booking's QR code.
type QRPayload struct {
	BookingID   string   `json:"bookingId"`
	UserName    string   `json:"userName"`
	UserEmail   string   `json:"userEmail"`
	SportName   string   `json:"sportName"`
	CourtNumber string   `json:"courtNumber"`
	Date        string   `json:"date"`
	TimeSlots   []string `json:"timeSlots"`
	TotalHours  int      `json:"totalHours"`
	CourtPrice  int64    `json:"courtPrice"`
	TotalPrice  int64    `json:"totalPrice"`
}

type putter interface {
	Put(ctx context.Context, folder, name string, data []byte) (string, error)
}

// QRGenerator renders a payload as a PNG QR code and stores it.
type QRGenerator struct {
	store putter
	level qrcode.RecoveryLevel
	size  int
}

func NewQRGenerator(store putter) *QRGenerator {
	return &QRGenerator{store: store, level: qrcode.Medium, size: qrSize}
}

// Issue stores the QR image as booking-<id>.png and returns its reference.
func (g *QRGenerator) Issue(ctx context.Context, p QRPayload) (string, error) {
	if p.BookingID == "" {
		return "", fmt.Errorf("qr payload: empty booking id")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}
	png, err := qrcode.Encode(string(data), g.level, g.size)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return g.store.Put(ctx, FolderQRCodes, QRFileName(p.BookingID), png)
}

func QRFileName(bookingID string) string {
	return "booking-" + bookingID + ".png"
}
