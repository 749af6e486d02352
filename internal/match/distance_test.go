package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"omega", "omega", 0},
		{"", "t_meas", 6},
		{"M", "", 1},

		{"a", "b", 1},
		{"ch1", "ch10", 1},
		{"ch10", "ch1", 1},

		// transpositions count once
		{"omgea", "omega", 1},
		{"defualt", "default", 1},
		{"sien", "sine", 1},
		{"ab", "ba", 1},

		{"kitten", "sitting", 3},
		{"sinchannel", "coschannel", 3},
		{"Default", "default", 1},

		// runes, not bytes
		{"φ", "ϕ", 1},
		{"Δt", "Δτ", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, Distance(tt.b, tt.a), "symmetry")
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.8, Similarity("omgea", "omega"), 1e-9)
	assert.InDelta(t, 0.5, Similarity("Δt", "Δτ"), 1e-9)
}

func TestScore(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
	}{
		{"t_meas", "tMeas", 1},
		{"sin_channel", "SinChannel", 1},
		{"charge-scan", "charge_scan", 1},
		{"dbz_fid", "dbzFID2", 0.8},
		{"defualt", "default", 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.GreaterOrEqual(t, Score(tt.a, tt.b), tt.min)
		})
	}

	assert.Less(t, Score("omega", "N"), MinSuggestionScore)
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"t_meas":        "tmeas",
		"tMeas":         "tmeas",
		"RFPulse":       "rfpulse",
		"chargeScanDBZ": "chargescandbz",
		"dbz.fid":       "dbzfid",
		"T-MEAS":        "tmeas",
		"sin channel":   "sinchannel",
	}

	for in, want := range tests {
		assert.Equal(t, want, Fold(in), in)
	}
}

func BenchmarkScore(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Score("charge_scan_duration", "chargeScanDuraiton")
	}
}
