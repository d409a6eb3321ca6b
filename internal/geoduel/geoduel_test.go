package geoduel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		c    Coordinate
		want bool
	}{
		{Coordinate{0, 0}, true},
		{Coordinate{90, 180}, true},
		{Coordinate{-90, -180}, true},
		{Coordinate{90.0001, 0}, false},
		{Coordinate{0, -180.5}, false},
		{Coordinate{math.NaN(), 0}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.Valid(), "%v", tt.c)
	}
}

func TestModeKinds(t *testing.T) {
	assert.Equal(t, KindHuman, ModeHumanVsAI.Kind(Player1))
	assert.Equal(t, KindAI, ModeHumanVsAI.Kind(Player2))
	assert.Equal(t, KindAI, ModeAIVsAI.Kind(Player1))
	assert.Equal(t, KindAI, ModeAIVsAI.Kind(Player2))

	assert.True(t, ModeAIVsAI.Valid())
	assert.False(t, Mode("solo").Valid())

	p1, p2 := ModeHumanVsAI.Labels()
	assert.Equal(t, "You", p1)
	assert.Equal(t, "AI", p2)
	p1, p2 = ModeAIVsAI.Labels()
	assert.Equal(t, "AI 1", p1)
	assert.Equal(t, "AI 2", p2)
}
