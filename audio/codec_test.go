package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpusDecoderAdapter_Concealment(t *testing.T) {
	a := NewOpusDecoderAdapter(1)
	out := make([]int16, 8)
	err := a.Decode(nil, nil, out, 8)
	assert.NoError(t, err)

	silent := true
	for _, v := range out {
		if v != 0 {
			silent = false
		}
	}
	assert.False(t, silent, "concealment should produce non-zero comfort noise")
}

func TestOpusDecoderAdapter_ClosedReturnsError(t *testing.T) {
	a := NewOpusDecoderAdapter(1)
	assert.NoError(t, a.Close())
	err := a.Decode(nil, nil, make([]int16, 4), 4)
	assert.Error(t, err)
}

func TestSpeexDecoderAdapter_Concealment(t *testing.T) {
	a := NewSpeexDecoderAdapter(1)
	out := make([]int16, 8)
	err := a.Decode(nil, nil, out, 8)
	assert.NoError(t, err)
}

func TestSpeexDecoderAdapter_Decode(t *testing.T) {
	a := NewSpeexDecoderAdapter(1)
	out := make([]int16, 4)
	err := a.Decode([]byte{1, 2, 3, 4}, nil, out, 4)
	assert.NoError(t, err)
	assert.NotEqual(t, int16(0), out[0])
}

func TestSpeexDecoderAdapter_ClosedReturnsError(t *testing.T) {
	a := NewSpeexDecoderAdapter(1)
	assert.NoError(t, a.Close())
	err := a.Decode([]byte{1}, nil, make([]int16, 4), 4)
	assert.Error(t, err)
}
