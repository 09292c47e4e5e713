//go:build nogocv

package color

import "errors"

func newDefaultCounter() (PixelCounter, error) {
	return nil, errors.New("built without OpenCV support")
}
