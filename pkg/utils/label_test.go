package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{"empty existing", Label{}, Label{Value: "a", Source: "recall"}, Label{Value: "a", Source: "recall"}},
		{"empty incoming", Label{Value: "a", Source: "recall"}, Label{}, Label{Value: "a", Source: "recall"}},
		{"same source", Label{Value: "a", Source: "recall"}, Label{Value: "b", Source: "recall"}, Label{Value: "a|b", Source: "recall"}},
		{"different source", Label{Value: "a", Source: "recall"}, Label{Value: "b", Source: "rule"}, Label{Value: "a|b", Source: "recall,rule"}},
		{"missing source", Label{Value: "a"}, Label{Value: "b", Source: "rule"}, Label{Value: "a|b", Source: "rule"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}
