package cellgfx

import "testing"

func TestNewScaleManagerValidation(t *testing.T) {
	tests := []struct {
		name    string
		options []float64
		desired int
		wantErr bool
	}{
		{"valid", []float64{1, 2}, 1, false},
		{"empty", nil, 0, true},
		{"zero scale", []float64{1, 0}, 0, true},
		{"negative index", []float64{1}, -1, true},
		{"index past end", []float64{1, 2}, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScaleManager(tt.options, tt.desired)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScaleManager(%v, %d) error = %v, wantErr %v", tt.options, tt.desired, err, tt.wantErr)
			}
		})
	}
}

func TestScaleManagerClosest(t *testing.T) {
	// 10x5 cells of 8x12 pixels.
	need := func(scale float64) (int, int) {
		return 10 * scaled(8, scale), 5 * scaled(12, scale)
	}

	tests := []struct {
		name    string
		options []float64
		desired int
		resW    int
		resH    int
		want    int
		ok      bool
	}{
		{"desired fits", []float64{1, 2, 3}, 2, 1000, 1000, 2, true},
		{"falls back to 2x", []float64{1, 2, 3}, 2, 200, 150, 1, true},
		{"exact fit", []float64{1, 2, 3}, 2, 160, 120, 1, true},
		{"height limits", []float64{1, 2, 3}, 2, 1000, 100, 0, true},
		{"never above desired", []float64{1, 2, 3}, 0, 1000, 1000, 0, true},
		{"unordered options", []float64{3, 1, 2}, 0, 200, 150, 2, true},
		{"duplicates pick lowest index", []float64{2, 1, 2}, 2, 200, 150, 0, true},
		{"nothing fits", []float64{1, 2}, 1, 50, 50, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewScaleManager(tt.options, tt.desired)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := m.Closest(tt.desired, need, tt.resW, tt.resH)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Closest = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
			if ok {
				w, h := need(tt.options[got])
				if w > tt.resW || h > tt.resH {
					t.Errorf("selected %vx needs %dx%d, display is %dx%d", tt.options[got], w, h, tt.resW, tt.resH)
				}
			}
		})
	}
}

func TestScaleManagerSmallest(t *testing.T) {
	m, _ := NewScaleManager([]float64{2, 0.5, 1}, 0)
	if got := m.Smallest(); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
}
