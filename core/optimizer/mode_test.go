package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Minimal, m)

	m, err = ParseMode(" Coverage-Max ")
	require.NoError(t, err)
	assert.Equal(t, CoverageMax, m)

	_, err = ParseMode("greedy")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestBareScheduleDuplicateHourSpelling(t *testing.T) {
	s, err := Bare{alice: {"Monday": {"08": "P2", "8": "P1"}}}.Schedule()
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "P1", s.Assignments()[0].Patient)
}

func TestBareScheduleSkipsEmptyPatients(t *testing.T) {
	s, err := Bare{alice: {"Monday": {"8": "", "9": "P1"}}}.Schedule()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}
