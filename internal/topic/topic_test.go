package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_InDomain(t *testing.T) {
	t.Parallel()

	g := NewDefaultGate()

	tests := []struct {
		question string
		want     bool
	}{
		{"What is the hostel fee?", true},
		{"Tell me about PLACEMENTS", true},
		{"Is there a bus transport facility", true},
		{"Scholarship for merit students", true},
		{"how do I apply for admission", true},
		{"What's the weather today?", false},
		{"tell me a joke", false},
		{"", false},
		// substring semantics: "ai" inside "said"
		{"she said hello", true},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, g.InDomain(tt.question))
		})
	}
}

func TestNewGate_DropsBlankKeywords(t *testing.T) {
	t.Parallel()

	g := NewGate([]string{"", "  ", " Library "})
	assert.True(t, g.InDomain("library hours"))
	assert.False(t, g.InDomain("anything"))
}
