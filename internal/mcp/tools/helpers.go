package tools

import (
	gojson "github.com/goccy/go-json"

	"github.com/docprobe/docprobe/pkg/profile"
)

// toAny round-trips a typed value through JSON into plain maps and
// slices. Tool outputs carry structured trees as `any` so the SDK's
// schema generator does not try to describe them field by field.
func toAny(v any) (any, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := gojson.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// skipInfos converts skip diagnostics into output rows.
func skipInfos(skips []profile.Skip) []SkipInfo {
	if len(skips) == 0 {
		return nil
	}
	out := make([]SkipInfo, len(skips))
	for i, s := range skips {
		out[i] = SkipInfo{Index: s.Index, Reason: s.Reason}
	}
	return out
}
