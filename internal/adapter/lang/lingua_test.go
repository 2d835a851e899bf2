package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetector_Detect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "english",
			text: "Fire near the river, people trapped, need help immediately",
			want: "en",
		},
		{
			name: "spanish",
			text: "Incendio cerca del puente, hay personas atrapadas, necesitamos ayuda",
			want: "es",
		},
		{
			name: "portuguese",
			text: "Enchente perto da ponte velha, a água está subindo muito rápido",
			want: "pt",
		},
		{
			name: "too short",
			text: "help fire",
			want: "unknown",
		},
		{
			name: "whitespace only",
			text: "          \t\n          ",
			want: "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}
