package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"512", 512},
		{"512b", 512},
		{"512B", 512},
		{"64K", 64 << 10},
		{"64kb", 64 << 10},
		{"64KB", 64 << 10},
		{"50M", 50 << 20},
		{"50mb", 50 << 20},
		{"1.5M", 3 << 19},
		{"2G", 2 << 30},
		{"2gb", 2 << 30},
		{" 8k ", 8 << 10},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "0", "abc", "10X", "10TBB", "-5M", "K"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.ErrorIs(t, err, ErrInvalidSize)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "512 B", Format(512))
	assert.Equal(t, "50 MiB", Format(50<<20))
	assert.Equal(t, "1.5 KiB", Format(1536))
}
