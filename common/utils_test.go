package common

import "testing"

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name   string
		values []float32
		want   float32
	}{
		{"set value wins", []float32{0.5, 2}, 0.5},
		{"zero falls through to default", []float32{0, 2}, 2},
		{"all zero", []float32{0, 0}, 0},
		{"no values", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coalesce(tt.values...); got != tt.want {
				t.Errorf("Coalesce(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
