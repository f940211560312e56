package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StatValue reads a numeric statistic from an opaque stats payload. Values may be encoded as
// JSON numbers or numeric strings; anything missing or unparsable reads as zero.
func StatValue(raw json.RawMessage, key string) float64 {
	if len(raw) == 0 {
		return 0
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", "")), 64)
	if err != nil {
		return 0
	}
	return n
}
