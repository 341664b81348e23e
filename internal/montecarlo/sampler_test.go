package montecarlo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Sample(t *testing.T) {
	trades := TradeList{100, -50, 25, -10}

	sample, err := NewSampler(NewUniformPicker(42)).Sample(trades, 500)
	require.NoError(t, err)
	assert.Len(t, sample, 500)

	for _, v := range sample {
		assert.Contains(t, []float64(trades), v)
	}
}

func TestSampler_Sample_Reproducible(t *testing.T) {
	trades := TradeList{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	a, err := NewSampler(NewUniformPicker(7)).Sample(trades, 100)
	require.NoError(t, err)
	b, err := NewSampler(NewUniformPicker(7)).Sample(trades, 100)
	require.NoError(t, err)
	c, err := NewSampler(NewUniformPicker(8)).Sample(trades, 100)
	require.NoError(t, err)

	assert.Equal(t, a, b, "same seed must give the same sample")
	assert.NotEqual(t, a, c, "different seeds should diverge")
}

func TestSampler_Sample_Errors(t *testing.T) {
	s := NewSampler(NewUniformPicker(1))

	_, err := s.Sample(nil, 10)
	assert.ErrorIs(t, err, ErrEmptyTrades)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = s.Sample(TradeList{1}, -1)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	sample, err := s.Sample(TradeList{1}, 0)
	require.NoError(t, err)
	assert.Empty(t, sample)
}

func TestUniformPicker_Range(t *testing.T) {
	p := NewUniformPicker(99)
	seen := make(map[int]bool)

	for i := 0; i < 10_000; i++ {
		idx := p.Pick(5)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 5)
		seen[idx] = true
	}

	assert.Len(t, seen, 5, "every index should be drawn eventually")
}

func TestWeightedPickers(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    int
	}{
		{name: "only last", weights: []float64{0, 0, 1}, want: 2},
		{name: "only first", weights: []float64{1, 0, 0}, want: 0},
		{name: "only middle", weights: []float64{0, 3, 0}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, err := WeightedPickers(tt.weights)
			require.NoError(t, err)

			p := factory(123)
			for i := 0; i < 1000; i++ {
				assert.Equal(t, tt.want, p.Pick(len(tt.weights)))
			}
		})
	}
}

func TestWeightedPickers_Bias(t *testing.T) {
	factory, err := WeightedPickers([]float64{1, 9})
	require.NoError(t, err)

	p := factory(5)
	counts := make([]int, 2)
	for i := 0; i < 20_000; i++ {
		counts[p.Pick(2)]++
	}

	ratio := float64(counts[1]) / 20_000
	assert.InDelta(t, 0.9, ratio, 0.02)
}

func TestWeightedPickers_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
	}{
		{name: "empty", weights: nil},
		{name: "negative", weights: []float64{1, -1}},
		{name: "all zero", weights: []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WeightedPickers(tt.weights)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRecencyWeights(t *testing.T) {
	w, err := RecencyWeights(3, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 1}, w, 1e-12)

	_, err = RecencyWeights(0, 1)
	assert.ErrorIs(t, err, ErrEmptyTrades)

	_, err = RecencyWeights(3, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDeriveSeed(t *testing.T) {
	assert.Equal(t, deriveSeed(1, 0), deriveSeed(1, 0))
	assert.NotEqual(t, deriveSeed(1, 0), deriveSeed(1, 1))
	assert.NotEqual(t, deriveSeed(1, 0), deriveSeed(2, 0))
}
