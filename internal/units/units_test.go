package units

import (
	"math"
	"testing"
)

func TestConversions(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"60 rpm", RPMToAngularSpeed(60), 2 * math.Pi},
		{"rpm round trip", AngularSpeedToRPM(RPMToAngularSpeed(3000)), 3000},
		{"rim speed", AngularToLinearSpeed(0.1, 20), 2},
		{"pi rad", RadToDegrees(math.Pi), 180},
		{"90 deg", DegreesToRad(90), math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}
