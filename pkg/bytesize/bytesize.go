// Package bytesize converts buffer sizes given on the command line.
package bytesize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/units"
	"github.com/dustin/go-humanize"
)

var ErrInvalidSize = errors.New("invalid size")

// Parse converts a size such as "512", "64K", "1.5MB" or "2g" into bytes.
// Suffixes are case insensitive and always binary multiples; "B" or no suffix
// means bytes.
func Parse(s string) (int, error) {
	str := strings.ToUpper(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("parse size %q: %w", s, ErrInvalidSize)
	}
	switch last := str[len(str)-1]; {
	case last >= '0' && last <= '9', last == '.':
		str += "B"
	case last == 'K', last == 'M', last == 'G':
		str += "B"
	}

	n, err := units.ParseBase2Bytes(str)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, errors.Join(ErrInvalidSize, err))
	}
	if n <= 0 || int64(int(n)) != int64(n) {
		return 0, fmt.Errorf("parse size %q: %w", s, ErrInvalidSize)
	}
	return int(n), nil
}

// Format renders n for log lines, e.g. "50 MiB".
func Format(n int) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.IBytes(uint64(n))
}
