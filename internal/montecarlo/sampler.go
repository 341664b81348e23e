package montecarlo

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// =============================================================================
// Picker - 주입 가능한 추출 서비스
// =============================================================================

// Picker draws one index in [0, n) per call.
type Picker interface {
	Pick(n int) int
}

// PickerFactory builds the picker for a single run from that run's seed.
// Each run gets its own stream.
type PickerFactory func(seed uint64) Picker

// UniformPicker 균등 확률 추출
type UniformPicker struct {
	rng *rand.Rand
}

// NewUniformPicker 시드 고정 균등 picker 생성
func NewUniformPicker(seed uint64) *UniformPicker {
	return &UniformPicker{rng: rand.New(rand.NewPCG(seed, seed^pcgStream))}
}

// Pick scales a uniform [0,1) draw onto the population.
func (p *UniformPicker) Pick(n int) int {
	return int(p.rng.Float64() * float64(n))
}

// UniformPickers is the default PickerFactory.
func UniformPickers(seed uint64) Picker {
	return NewUniformPicker(seed)
}

// WeightedPicker 가중치 기반 추출 (누적 가중치 이진 탐색)
type WeightedPicker struct {
	rng *rand.Rand
	cum []float64
}

// Pick returns the first index whose cumulative weight exceeds a uniform draw
// over the total. The population size is fixed by the weights, so n is unused;
// NewEngine rejects weights whose length differs from the trade list.
func (p *WeightedPicker) Pick(_ int) int {
	hi := len(p.cum) - 1
	x := p.rng.Float64() * p.cum[hi]
	return sort.Search(hi, func(i int) bool { return p.cum[i] > x })
}

// WeightedPickers validates weights once and returns a factory sharing the
// cumulative table across runs.
func WeightedPickers(weights []float64) (PickerFactory, error) {
	if len(weights) == 0 {
		return nil, configError("weights cannot be empty")
	}

	cum := make([]float64, len(weights))
	var total float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, configError("weight %d must be finite and >= 0, got %v", i, w)
		}
		total += w
		cum[i] = total
	}
	if total <= 0 {
		return nil, configError("weights must sum to > 0")
	}

	return func(seed uint64) Picker {
		return &WeightedPicker{
			rng: rand.New(rand.NewPCG(seed, seed^pcgStream)),
			cum: cum,
		}
	}, nil
}

// RecencyWeights weights the i-th trade by 0.5^((n-1-i)/halfLife) so the most
// recent trade counts most.
func RecencyWeights(n int, halfLife float64) ([]float64, error) {
	if n <= 0 {
		return nil, ErrEmptyTrades
	}
	if halfLife <= 0 {
		return nil, configError("half life must be > 0, got %v", halfLife)
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Pow(0.5, float64(n-1-i)/halfLife)
	}
	return weights, nil
}

// =============================================================================
// Sampler
// =============================================================================

// Sampler 부트스트랩 샘플러 (복원 추출)
type Sampler struct {
	picker Picker
}

// NewSampler creates a sampler drawing through picker.
func NewSampler(picker Picker) *Sampler {
	return &Sampler{picker: picker}
}

// Sample draws size trades with replacement.
func (s *Sampler) Sample(trades TradeList, size int) ([]float64, error) {
	if len(trades) == 0 {
		return nil, ErrEmptyTrades
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: sample size must be >= 0, got %d", ErrInvalidConfig, size)
	}

	out := make([]float64, size)
	n := len(trades)
	for i := range out {
		out[i] = trades[s.picker.Pick(n)]
	}
	return out, nil
}

// =============================================================================
// Seed derivation
// =============================================================================

const pcgStream = 0xda3e39cb94b95bdb

// deriveSeed mixes a parent seed with a child index (splitmix64 finalizer).
func deriveSeed(parent uint64, index int) uint64 {
	z := parent + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
