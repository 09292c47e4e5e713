//go:build !nogocv

package color

import (
	"fmt"

	"gocv.io/x/gocv"

	"oceanguard/internal/config"
)

// OpenCVCounter counts band pixels in HSV space with OpenCV.
type OpenCVCounter struct{}

func newDefaultCounter() (PixelCounter, error) {
	return OpenCVCounter{}, nil
}

// CountBands decodes the frame and sums mask pixels per band. Ranges of one
// band are expected to be disjoint.
func (OpenCVCounter) CountBands(data []byte, bands []config.ColorBand) ([]int, int, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, 0, fmt.Errorf("decoded image is empty")
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, 0, fmt.Errorf("failed to convert image to HSV: %v", err)
	}

	total := mat.Rows() * mat.Cols()
	counts := make([]int, len(bands))

	for i, band := range bands {
		for _, r := range band.Ranges {
			mask := gocv.NewMat()
			gocv.InRangeWithScalar(hsv,
				gocv.NewScalar(r.Lower[0], r.Lower[1], r.Lower[2], 0),
				gocv.NewScalar(r.Upper[0], r.Upper[1], r.Upper[2], 0),
				&mask)
			counts[i] += gocv.CountNonZero(mask)
			mask.Close()
		}
	}

	return counts, total, nil
}
