package format

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	Byte = 1

	KibiByte = Byte << 10
	MebiByte = KibiByte << 10
	GibiByte = MebiByte << 10
)

// HumanBytes renders b in binary units with at most one decimal place,
// e.g. "1.5 MiB". Whole values drop the decimal.
func HumanBytes(b int64) string {
	var value float64
	var unit string
	switch {
	case b >= GibiByte:
		value, unit = float64(b)/GibiByte, "GiB"
	case b >= MebiByte:
		value, unit = float64(b)/MebiByte, "MiB"
	case b >= KibiByte:
		value, unit = float64(b)/KibiByte, "KiB"
	default:
		return fmt.Sprintf("%d B", b)
	}

	s := strconv.FormatFloat(value, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + " " + unit
}
