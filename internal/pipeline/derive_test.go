package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceform/raceform-cli/internal/model"
)

func TestDeriveLabels(t *testing.T) {
	rows := []model.ResultRow{
		{Position: 1},
		{Position: 2},
		{Position: 40},
	}

	rows = DeriveLabels(rows)

	assert.True(t, rows[0].Won)
	assert.False(t, rows[0].DidNotFinish)
	assert.False(t, rows[1].Won)
	assert.False(t, rows[1].DidNotFinish)
	assert.False(t, rows[2].Won)
	assert.True(t, rows[2].DidNotFinish)
}

func TestDeriveLabels_OverwritesStaleLabels(t *testing.T) {
	// A snapshot copied by hand may carry labels that no longer match the
	// position column. Derivation must win.
	rows := []model.ResultRow{
		{Position: 5, Won: true},
		{Position: 1, Won: false},
		{Position: 3, DidNotFinish: true},
	}

	rows = DeriveLabels(rows)

	assert.False(t, rows[0].Won)
	assert.True(t, rows[1].Won)
	assert.False(t, rows[2].DidNotFinish)
}

func TestDeriveLabels_Idempotent(t *testing.T) {
	rows := DeriveLabels([]model.ResultRow{{Position: 1}, {Position: 40}})
	again := DeriveLabels(rows)
	assert.Equal(t, rows, again)
}

func TestParsePosition(t *testing.T) {
	pos, err := ParsePosition("1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pos)

	pos, err = ParsePosition(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), pos)

	pos, err = ParsePosition("40")
	require.NoError(t, err)
	assert.Equal(t, int64(40), pos)
}

func TestParsePosition_FloatEncoded(t *testing.T) {
	pos, err := ParsePosition("3.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)
}

func TestParsePosition_NonNumeric(t *testing.T) {
	_, err := ParsePosition("DSQ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadPosition))

	_, err = ParsePosition("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadPosition))

	_, err = ParsePosition("3.5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadPosition))
}
