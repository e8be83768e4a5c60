package stubserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/freetodo/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []model.Item
	}{
		{
			name: "simple errand",
			in:   "I would like to go to the store and buy some milk",
			want: []model.Item{{Goal: "Go to the store and buy some milk", Deadline: "", People: []string{"Me"}}},
		},
		{
			name: "visit with time",
			in:   "I need to go and visit Jeff at 3pm tomorrow",
			want: []model.Item{{Goal: "Go and visit Jeff", Deadline: "tomorrow at 3pm", People: []string{"Jeff"}}},
		},
		{
			name: "two sentences",
			in:   "Call Mom on friday. Water the plants",
			want: []model.Item{
				{Goal: "Call Mom", Deadline: "on friday", People: []string{"Mom"}},
				{Goal: "Water the plants", Deadline: "", People: []string{"Me"}},
			},
		},
		{
			name: "several people",
			in:   "have dinner with Anna and Bob tonight",
			want: []model.Item{{Goal: "Have dinner with Anna and Bob", Deadline: "tonight", People: []string{"Anna", "Bob"}}},
		},
		{
			name: "empty",
			in:   "  ",
			want: []model.Item{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}
