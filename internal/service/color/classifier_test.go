package color

import (
	"errors"
	"math"
	"testing"

	"oceanguard/internal/config"
)

type fakeCounter struct {
	counts []int
	total  int
	err    error
}

func (f fakeCounter) CountBands(data []byte, bands []config.ColorBand) ([]int, int, error) {
	return f.counts, f.total, f.err
}

func testBands() []config.ColorBand {
	return []config.ColorBand{
		{Label: "WHITE", Ranges: []config.HSVRange{{Upper: [3]float64{180, 30, 255}}}},
		{Label: "BLUE", Ranges: []config.HSVRange{{Lower: [3]float64{100, 100, 100}, Upper: [3]float64{130, 255, 255}}}},
		{Label: "RED", Ranges: []config.HSVRange{
			{Lower: [3]float64{0, 100, 100}, Upper: [3]float64{10, 255, 255}},
			{Lower: [3]float64{160, 100, 100}, Upper: [3]float64{180, 255, 255}},
		}},
	}
}

func TestSelectMatches_WindowAndOrder(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   []string
	}{
		{"all inside, ordered by coverage", []int{100, 300, 200}, []string{"BLUE", "RED", "WHITE"}},
		{"noise below minimum dropped", []int{40, 300, 0}, []string{"BLUE"}},
		{"background above maximum dropped", []int{700, 100, 50}, []string{"BLUE", "RED"}},
		{"bounds are inclusive", []int{50, 600, 0}, []string{"BLUE", "WHITE"}},
		{"ties broken by label", []int{100, 100, 0}, []string{"BLUE", "WHITE"}},
		{"nothing detected", []int{0, 0, 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectMatches(testBands(), tt.counts, 1000, 5, 60)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %+v", tt.want, got)
			}
			for i, label := range tt.want {
				if got[i].Label != label {
					t.Errorf("Position %d: expected %s, got %s", i, label, got[i].Label)
				}
			}
		})
	}
}

func TestSelectMatches_Percentage(t *testing.T) {
	got := SelectMatches(testBands(), []int{0, 125, 0}, 1000, 5, 60)
	if len(got) != 1 {
		t.Fatalf("Expected one match, got %+v", got)
	}
	if math.Abs(got[0].Percentage-12.5) > 1e-9 {
		t.Errorf("Expected 12.5%%, got %f", got[0].Percentage)
	}
}

func TestSelectMatches_BandWindow(t *testing.T) {
	bands := testBands()
	lo, hi := 1.0, 90.0
	bands[0].MinPercent = &lo
	bands[0].MaxPercent = &hi

	// WHITE at 80% and RED at 2% pass only under WHITE's own window.
	got := SelectMatches(bands, []int{800, 100, 20}, 1000, 5, 60)
	if len(got) != 2 || got[0].Label != "WHITE" || got[1].Label != "BLUE" {
		t.Errorf("Expected [WHITE BLUE], got %+v", got)
	}
}

func TestSelectMatches_EmptyFrame(t *testing.T) {
	if got := SelectMatches(testBands(), []int{0, 0, 0}, 0, 5, 60); got != nil {
		t.Errorf("Expected nil for zero pixels, got %+v", got)
	}
}

func TestClassifier_DecodeFailureIsEmpty(t *testing.T) {
	c := NewClassifier(fakeCounter{err: errors.New("corrupt jpeg")}, testBands(), 5, 60, nil)

	if got := c.Classify([]byte("junk")); len(got) != 0 {
		t.Errorf("Expected no matches, got %+v", got)
	}
}

func TestClassifier_NoCounter(t *testing.T) {
	c := NewClassifier(nil, testBands(), 5, 60, nil)

	if got := c.Classify([]byte("frame")); len(got) != 0 {
		t.Errorf("Expected no matches without a counter, got %+v", got)
	}
}

func TestClassifier_TopMatch(t *testing.T) {
	c := NewClassifier(fakeCounter{counts: []int{80, 0, 450}, total: 1000}, testBands(), 5, 60, nil)

	got := c.Classify([]byte("frame"))
	if len(got) != 2 {
		t.Fatalf("Expected 2 matches, got %+v", got)
	}
	if got[0].Label != "RED" || math.Abs(got[0].Percentage-45) > 1e-9 {
		t.Errorf("Expected RED 45%% on top, got %+v", got[0])
	}
}
