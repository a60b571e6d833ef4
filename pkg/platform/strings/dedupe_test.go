package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil stays nil", nil, nil},
		{"broker list from env", []string{" kafka-1:9092", "kafka-2:9092 ", "kafka-1:9092"}, []string{"kafka-1:9092", "kafka-2:9092"}},
		{"blank entries dropped", []string{"", "  ", "a"}, []string{"a"}},
		{"all blank", []string{" ", ""}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}
