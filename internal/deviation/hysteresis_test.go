package deviation_test

import (
	"testing"

	"github.com/benmeehan/route-agent/internal/deviation"
	"github.com/stretchr/testify/assert"
)

func TestHysteresis_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		start     []bool
		exceeds   bool
		wantAlert deviation.AlertEvent
		wantState deviation.State
	}{
		{"on route stays on route", nil, false, deviation.NoAlert, deviation.OnRoute},
		{"on route leaves route", nil, true, deviation.Triggered, deviation.OffRoute},
		{"off route stays off route", []bool{true}, true, deviation.NoAlert, deviation.OffRoute},
		{"off route returns silently", []bool{true}, false, deviation.NoAlert, deviation.OnRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := deviation.NewHysteresis()
			for _, e := range tt.start {
				h.Update(e)
			}
			assert.Equal(t, tt.wantAlert, h.Update(tt.exceeds))
			assert.Equal(t, tt.wantState, h.State())
		})
	}
}

func TestHysteresis_OneAlertPerEpisode(t *testing.T) {
	h := deviation.NewHysteresis()

	var triggeredAt []int
	for i, exceeds := range []bool{false, true, true, false, true} {
		if h.Update(exceeds) == deviation.Triggered {
			triggeredAt = append(triggeredAt, i+1)
		}
	}

	assert.Equal(t, []int{2, 5}, triggeredAt)
}

func TestHysteresis_LongOffRouteRunFiresOnce(t *testing.T) {
	h := deviation.NewHysteresis()

	assert.Equal(t, deviation.Triggered, h.Update(true))
	for i := 0; i < 100; i++ {
		assert.Equal(t, deviation.NoAlert, h.Update(true))
	}
}

func TestHysteresis_Reset(t *testing.T) {
	h := deviation.NewHysteresis()
	h.Update(true)
	assert.Equal(t, deviation.OffRoute, h.State())

	h.Reset()

	assert.Equal(t, deviation.OnRoute, h.State())
	assert.Equal(t, deviation.Triggered, h.Update(true))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "on_route", deviation.OnRoute.String())
	assert.Equal(t, "off_route", deviation.OffRoute.String())
	assert.Equal(t, "triggered", deviation.Triggered.String())
	assert.Equal(t, "none", deviation.NoAlert.String())
}
