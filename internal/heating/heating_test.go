package heating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeasonSwitch_Transitions(t *testing.T) {
	// heat limit 15 °C, half width 1 K: bands at 13.8 / 14.2 / 15.8 / 16.2
	tests := []struct {
		name  string
		from  Mode
		tMean float64
		want  Mode
	}{
		{"winter stays when cold", Winter, 14.0, Winter},
		{"winter to intermediate", Winter, 14.3, Intermediate},
		{"intermediate stays in band", Intermediate, 15.0, Intermediate},
		{"intermediate to summer", Intermediate, 16.3, Summer},
		{"intermediate to winter", Intermediate, 13.7, Winter},
		{"summer stays when warm", Summer, 16.0, Summer},
		{"summer to intermediate", Summer, 15.7, Intermediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seasonSwitch{mode: tt.from, halfWidth: 1}
			s.update(15, tt.tMean)
			assert.Equal(t, tt.want, s.mode)
		})
	}
}

func TestSeasonSwitch_NoChatterInsideBand(t *testing.T) {
	s := seasonSwitch{mode: Intermediate, halfWidth: 1}
	s.update(15, 16.5)
	assert.Equal(t, Summer, s.mode)

	// cooling into the band between 15.8 and 16.2 keeps summer
	for _, tm := range []float64{16.1, 15.9, 16.0, 15.85} {
		s.update(15, tm)
		assert.Equal(t, Summer, s.mode, "t_mean=%.2f", tm)
	}
}

func TestNoSystem_PassesDemandThrough(t *testing.T) {
	var s System = NoSystem{}
	e, th := s.Step(3000, 400, -5, 15, 0)

	assert.Zero(t, e)
	assert.InDelta(t, 3400, th, 1e-9)
	assert.Zero(t, s.Losses())
	assert.Equal(t, KindNone, s.Kind())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "winter", Winter.String())
	assert.Equal(t, "intermediate", Intermediate.String())
	assert.Equal(t, "summer", Summer.String())
}
