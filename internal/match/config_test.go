package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#FF0000")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 1}, c)
	assert.Equal(t, "#FF0000", c.Hex())

	c, err = ParseHex("#1a1a1a")
	require.NoError(t, err)
	assert.Equal(t, "#1A1A1A", c.Hex())

	for _, bad := range []string{"", "FF0000", "#FF00", "#GG0000", "#FF00000"} {
		_, err := ParseHex(bad)
		assert.ErrorIs(t, err, ErrInvalidColor, bad)
	}
}

func TestConfigResolve(t *testing.T) {
	cfg := Config{Paddle1Color: "#FF0000", Paddle2Color: "#0000FF", MapStyle: StyleClassic}
	r, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Color{R: 1}, r.Paddle1)
	assert.Equal(t, Color{B: 1}, r.Paddle2)
	assert.Equal(t, StyleClassic, r.Style)

	cfg.MapStyle = "disco"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMapStyle)

	cfg.MapStyle = StyleNeon
	cfg.Paddle2Color = "blue"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidColor)

	cfg.Paddle2Color = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidColor)
}

func TestValidateDistinct(t *testing.T) {
	cfg := Config{Paddle1Color: "#FF0000", Paddle2Color: "#ff0000", MapStyle: StyleRed}
	assert.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.ValidateDistinct(), ErrColorsNotUnique)

	cfg.Paddle2Color = "#123456"
	assert.ErrorIs(t, cfg.ValidateDistinct(), ErrColorNotInPalette)

	cfg.Paddle2Color = "#00FFFF"
	assert.NoError(t, cfg.ValidateDistinct())
}

func TestParseMapStyleAndSoundtrack(t *testing.T) {
	s, err := ParseMapStyle(" Neon ")
	require.NoError(t, err)
	assert.Equal(t, StyleNeon, s)
	assert.Equal(t, "Arcadewave", s.Soundtrack())
	assert.Equal(t, "Envy", StyleRed.Soundtrack())
	assert.Equal(t, "Force", StyleClassic.Soundtrack())

	_, err = ParseMapStyle("")
	assert.ErrorIs(t, err, ErrInvalidMapStyle)
}

func TestConfigYAML(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte("paddle1_color: '#00FF00'\npaddle2_color: '#FF00FF'\nmap_style: neon\n"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, Config{Paddle1Color: "#00FF00", Paddle2Color: "#FF00FF", MapStyle: StyleNeon}, cfg)
}

func TestSide(t *testing.T) {
	assert.Equal(t, Player2, Player1.Opponent())
	assert.Equal(t, Player1, Player2.Opponent())
	assert.Equal(t, NoSide, NoSide.Opponent())
	assert.Equal(t, "Player 2", Player2.DisplayName())
	assert.Equal(t, "player1", Player1.String())
}
