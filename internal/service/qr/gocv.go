//go:build !nogocv

package qr

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

func init() {
	Register("gocv", func() (Decoder, error) { return NewGocvDecoder(), nil })
}

// GocvDecoder decodes QR codes with OpenCV's QRCodeDetector.
type GocvDecoder struct {
	detector gocv.QRCodeDetector
	mu       sync.Mutex
}

// NewGocvDecoder creates an OpenCV backed decoder.
func NewGocvDecoder() *GocvDecoder {
	return &GocvDecoder{detector: gocv.NewQRCodeDetector()}
}

func (d *GocvDecoder) Name() string { return "gocv" }

// Decode returns "" when OpenCV finds no code.
func (d *GocvDecoder) Decode(data []byte) (string, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return "", fmt.Errorf("decoded image is empty")
	}

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detector.DetectAndDecode(mat, &points, &straight), nil
}

// Close releases the OpenCV detector.
func (d *GocvDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detector.Close()
}
