package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxCenter(t *testing.T) {
	b := Box{X: 10, Y: 20, Width: 8, Height: 6}
	x, y := b.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
}

func TestClassify_NoBoxesIsPass(t *testing.T) {
	require.Equal(t, VerdictPass, Classify(nil, 0.6))
	require.Equal(t, VerdictPass, Classify([]Detection{}, 0.6))
}

func TestClassify_AnyLowBoxIsLowConfidence(t *testing.T) {
	dets := []Detection{
		{ClassID: 0, Confidence: 0.9},
		{ClassID: 3, Confidence: 0.4},
	}
	require.Equal(t, VerdictLowConfidence, Classify(dets, 0.6))
}

func TestClassify_AllConfidentIsFail(t *testing.T) {
	dets := []Detection{
		{ClassID: 1, Confidence: 0.6},
		{ClassID: 2, Confidence: 0.95},
	}
	require.Equal(t, VerdictFail, Classify(dets, 0.6))
}

func TestClassify_ThresholdIsStrict(t *testing.T) {
	// Рамка ровно на пороге считается уверенной.
	dets := []Detection{{ClassID: 0, Confidence: 0.6}}
	require.Equal(t, VerdictFail, Classify(dets, 0.6))
}
