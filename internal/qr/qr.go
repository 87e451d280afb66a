// Package qr renders URLs as PNG QR code bitmaps.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Size is the pixel width and height of generated QR codes.
const Size = 256

// EncodePNG renders data as a Size×Size black-on-white PNG QR code.
func EncodePNG(data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("qr: empty data")
	}
	png, err := qrcode.Encode(data, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	return png, nil
}
