package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSeatLabel(t *testing.T) {
	valid := []string{"A1", "B5", "Z99", "J14", "A10000"}
	for _, label := range valid {
		assert.True(t, ValidSeatLabel(label), "expected %q to be valid", label)
	}
	invalid := []string{"", "a1", "1A", "A", "7", "AA1", "A1B", "A-1", " A1", "A1 ", "Ä1"}
	for _, label := range invalid {
		assert.False(t, ValidSeatLabel(label), "expected %q to be invalid", label)
	}
}

func TestRepeatedLabels(t *testing.T) {
	assert.Nil(t, repeatedLabels([]string{"A1", "A2", "A3"}))
	assert.Equal(t, []string{"A1"}, repeatedLabels([]string{"A1", "A2", "A1"}))
	// Listed once each, in first-occurrence order, even when tripled.
	assert.Equal(t, []string{"B2", "A1"}, repeatedLabels([]string{"B2", "A1", "B2", "A1", "B2"}))
}

func TestTakenLabels(t *testing.T) {
	occupied := map[string]struct{}{"A1": {}, "C3": {}}
	assert.Nil(t, takenLabels([]string{"B1", "B2"}, occupied))
	assert.Equal(t, []string{"A1", "C3"}, takenLabels([]string{"A1", "B2", "C3"}, occupied))
}
