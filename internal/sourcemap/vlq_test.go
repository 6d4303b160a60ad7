package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVLQ(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{15, "e"},
		{16, "gB"},
		{-16, "hB"},
		{123, "2H"},
		{1000, "w+B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeVLQ(tt.value), "value %d", tt.value)
	}
}

func TestDecodeVLQ(t *testing.T) {
	for _, v := range []int{0, 1, -1, 15, 16, -16, 31, 32, 1000, -123456, 1 << 30} {
		encoded := EncodeVLQ(v)
		got, n, err := DecodeVLQ(encoded + "AAAA")
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(encoded), n)
	}
}

func TestDecodeVLQErrors(t *testing.T) {
	_, _, err := DecodeVLQ("g")
	assert.ErrorContains(t, err, "unterminated")

	_, _, err = DecodeVLQ("!")
	assert.ErrorContains(t, err, "invalid base64 digit")

	_, _, err = DecodeVLQ("é")
	assert.ErrorContains(t, err, "invalid base64 digit")

	_, _, err = DecodeVLQ("gggggggggggggA")
	assert.ErrorContains(t, err, "overflows")
}
