package severity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    Severity
		want bool
	}{
		{Critical, true},
		{High, true},
		{Medium, true},
		{Low, true},
		{None, true},
		{"info", false},
		{"", false},
		{"Critical", false}, // must be lowercase
	}
	for _, tt := range tests {
		t.Run(string(tt.s), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.s.IsValid())
		})
	}
}

func TestSeverityOrdering(t *testing.T) {
	all := All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].Score(), all[i].Score(), "%s should outrank %s", all[i-1], all[i])
	}
	assert.Equal(t, 0, Severity("bogus").Score())
	assert.Equal(t, "Unknown", Severity("bogus").Label())
	assert.Equal(t, "Critical", Critical.Label())
}

func TestFromScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  Severity
	}{
		{10.0, Critical},
		{9.0, Critical},
		{8.9, High},
		{7.0, High},
		{6.9, Medium},
		{4.0, Medium},
		{3.9, Low},
		{0.1, Low},
		{0.0, None},
		{-1, None},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromScore(tt.score), "score %.1f", tt.score)
	}
}

func TestScoreVector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		vector string
		want   float64
	}{
		{"unauthenticated rce", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8},
		{"scope changed max", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H", 10.0},
		{"reflected xss", "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N", 6.1},
		{"local info leak", "CVSS:3.1/AV:L/AC:L/PR:L/UI:N/S:U/C:H/I:N/A:N", 5.5},
		{"no impact", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N", 0},
		{"v3.0 prefix", "CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8},
		{"temporal metrics ignored", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H/E:P/RL:O", 9.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ScoreVector(tt.vector)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScoreVectorErrors(t *testing.T) {
	t.Parallel()

	bad := []string{
		"",
		"AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
		"CVSS:2.0/AV:N/AC:L/Au:N/C:P/I:P/A:P",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H",
		"CVSS:3.1/AV:X/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:Q/C:H/I:H/A:H",
		"CVSS:3.1/AV:N/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
		"CVSS:3.1/AV:N/AC/PR:N/UI:N/S:U/C:H/I:H/A:H",
	}
	for _, v := range bad {
		_, err := ScoreVector(v)
		assert.True(t, errors.Is(err, ErrInvalidVector), "vector %q: got %v", v, err)
	}
}

func TestFromVector(t *testing.T) {
	sev, score, err := FromVector("CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N")
	require.NoError(t, err)
	assert.Equal(t, Medium, sev)
	assert.InDelta(t, 6.1, score, 1e-9)
}
