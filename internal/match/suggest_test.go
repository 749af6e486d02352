package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name  string
		known []string
		limit int
		want  []string
	}{
		{"typo", []string{"a", "omega", "t_meas"}, 3, []string{"omega"}},
		{"style", []string{"t_meas", "n"}, 1, []string{"t_meas"}},
		{"ranked", []string{"ch2", "ch0", "ch10"}, 2, []string{"ch10", "ch0"}},
		{"limit", []string{"ch2", "ch0", "ch10"}, 1, []string{"ch10"}},
	}

	query := map[string]string{
		"typo":   "omgea",
		"style":  "tMeas",
		"ranked": "ch1",
		"limit":  "ch1",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(query[tt.name], tt.known, tt.limit))
		})
	}
}

func TestSuggest_Nothing(t *testing.T) {
	assert.Empty(t, Suggest("a", []string{"a"}, 3))
	assert.Empty(t, Suggest("omega", []string{"N", "t_meas"}, 3))
	assert.Nil(t, Suggest("omega", []string{"omega2"}, 0))
	assert.Nil(t, Suggest("omega", nil, 3))
}
