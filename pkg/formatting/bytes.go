// Package formatting renders quantities for display: byte sizes for upload
// limits, emission masses for KPI cards and tables, and percentage shares.
package formatting

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count using base-1024 units, e.g. "5.0 MiB".
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// ParseBytes parses a size such as "5MB", "512 KiB", or "1048576" into a
// byte count. SI suffixes (KB, MB) are base-1000, IEC suffixes (KiB, MiB)
// are base-1024, and a bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("byte size %q out of range", s)
	}
	return int64(n), nil
}
