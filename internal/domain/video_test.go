package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration_RendersMinutesAndHours(t *testing.T) {
	assert.Equal(t, "00:00", FormatDuration(0))
	assert.Equal(t, "00:00", FormatDuration(-5))
	assert.Equal(t, "00:42", FormatDuration(42))
	assert.Equal(t, "03:25", FormatDuration(205))
	assert.Equal(t, "01:00:01", FormatDuration(3601))
}

func TestFormatFileSize_PicksUnit(t *testing.T) {
	assert.Equal(t, "0 B", FormatFileSize(0))
	assert.Equal(t, "512.00 B", FormatFileSize(512))
	assert.Equal(t, "1.00 KB", FormatFileSize(1024))
	assert.Equal(t, "1.50 MB", FormatFileSize(1572864))
}

func TestSanitizeFilename_ReplacesReservedCharacters(t *testing.T) {
	assert.Equal(t, "a_b_c_d_e_f_g_h_i", SanitizeFilename(`a\b/c:d*e?f"g<h>i`))
	assert.Equal(t, "Song Title _Official_", SanitizeFilename("Song Title |Official|"))
	assert.Equal(t, "plain name", SanitizeFilename("plain name"))
}

func TestHeightCeiling_MatchesLadderOrder(t *testing.T) {
	prev := 0
	for _, q := range VideoQualityLadder {
		assert.Greater(t, q.HeightCeiling(), prev, "ladder must be ascending at %s", q)
		prev = q.HeightCeiling()
	}
}

func TestBitrateCeiling_MatchesLadderOrder(t *testing.T) {
	prev := 0.0
	for _, q := range AudioQualityLadder {
		assert.Greater(t, q.BitrateCeiling(), prev, "ladder must be ascending at %s", q)
		prev = q.BitrateCeiling()
	}
}
