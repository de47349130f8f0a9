package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBToHex_RoundTrip(t *testing.T) {
	// 채널별 경계값과 중간값 전체 조합
	values := []int{0, 1, 15, 16, 127, 128, 200, 254, 255}
	for _, r := range values {
		for _, g := range values {
			for _, b := range values {
				hex, err := RGBToHex(r, g, b)
				require.NoError(t, err)
				require.Len(t, hex, 7)

				gr, gg, gb, err := HexToComponents(hex)
				require.NoError(t, err)
				require.Equal(t, []int{r, g, b}, []int{gr, gg, gb}, "round trip of %s", hex)
			}
		}
	}
}

func TestRGBToHex_Format(t *testing.T) {
	hex, err := RGBToHex(0x11, 0x22, 0x33)
	require.NoError(t, err)
	assert.Equal(t, "#112233", hex)

	hex, err = RGBToHex(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "#010203", hex, "channels are zero padded")
}

func TestRGBToHex_OutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b int
		channel string
	}{
		{"negative red", -1, 0, 0, "r=-1"},
		{"green too large", 0, 256, 0, "g=256"},
		{"blue too large", 0, 0, 1000, "b=1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hex, err := RGBToHex(tt.r, tt.g, tt.b)
			require.Error(t, err)
			assert.Empty(t, hex)
			assert.Contains(t, err.Error(), tt.channel)
			assert.Contains(t, err.Error(), "between 0 and 255")
		})
	}
}

func TestHexToComponents(t *testing.T) {
	r, g, b, err := HexToComponents("ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, []int{0xab, 0xcd, 0xef}, []int{r, g, b})

	_, _, _, err = HexToComponents("#12345")
	assert.Error(t, err)

	_, _, _, err = HexToComponents("#zzzzzz")
	assert.Error(t, err)
}

func TestHexPalette(t *testing.T) {
	out, err := HexPalette([]RGB{{0x11, 0x22, 0x33}, {0x44, 0x55, 0x66}})
	require.NoError(t, err)
	assert.Equal(t, []string{"#112233", "#445566"}, out)

	_, err = HexPalette([]RGB{{0, 0, 0}, {300, 0, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "palette entry 1")
}

func TestStripHash(t *testing.T) {
	assert.Equal(t, "112233", StripHash("#112233"))
	assert.Equal(t, "112233", StripHash(" 112233 "))
}
