package ports

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrand_Encompasses(t *testing.T) {
	tests := []struct {
		s, other Strand
		want     bool
	}{
		{StrandForward, StrandForward, true},
		{StrandForward, StrandReverse, false},
		{StrandReverse, StrandNone, false},
		{StrandNone, StrandNone, true},
		{StrandAny, StrandForward, true},
		{StrandAny, StrandNone, true},
		{StrandForward, StrandAny, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.Encompasses(tt.other), "%s encompasses %s", tt.s, tt.other)
	}
}

func TestFeature_Label(t *testing.T) {
	assert.Equal(t, "trkA", NewGeneFeature("chr", StrandForward, 1, 9, "VNG1001G", "trkA", GeneTypeGene).Label())
	assert.Equal(t, "VNG1001G", NewGeneFeature("chr", StrandForward, 1, 9, "VNG1001G", "", GeneTypeGene).Label())
}

func TestFeature_CentralPosition(t *testing.T) {
	assert.Equal(t, 255, Feature{Start: 10, End: 500}.CentralPosition())
	assert.Equal(t, 5, Feature{Start: 1, End: 9}.CentralPosition())
	assert.Equal(t, 7, Feature{Start: 7, End: 7}.CentralPosition())

	big := Feature{Start: math.MaxInt - 3, End: math.MaxInt - 1}
	assert.Equal(t, math.MaxInt-2, big.CentralPosition(), "no overflow")
}
