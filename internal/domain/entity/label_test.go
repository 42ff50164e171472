package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeBoxRoundTrip(t *testing.T) {
	const w, h = 1920, 1080
	l := NormalizeBox(2, 100, 250, 340, 610, w, h)

	xmin, ymin, xmax, ymax := l.Denormalize(w, h)
	require.InDelta(t, 100, xmin, 1)
	require.InDelta(t, 250, ymin, 1)
	require.InDelta(t, 340, xmax, 1)
	require.InDelta(t, 610, ymax, 1)
}

func TestLabelStringAndParse(t *testing.T) {
	l := NormalizeBox(4, 10, 20, 110, 220, 640, 640)
	line := l.String()

	parsed, err := ParseLabel(line)
	require.NoError(t, err)
	require.Equal(t, 4, parsed.ClassID)
	require.InDelta(t, l.XCenter, parsed.XCenter, 1e-6)
	require.InDelta(t, l.YCenter, parsed.YCenter, 1e-6)
	require.InDelta(t, l.Width, parsed.Width, 1e-6)
	require.InDelta(t, l.Height, parsed.Height, 1e-6)
}

func TestParseLabelRejectsGarbage(t *testing.T) {
	_, err := ParseLabel("not a label")
	require.Error(t, err)
}

func TestTaxonomySize(t *testing.T) {
	require.Len(t, ClassNames, NumClasses)
}
