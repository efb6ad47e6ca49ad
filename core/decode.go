package core

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// timeLayouts are tried in order when decoding timestamps. The service emits
// RFC3339 values, sometimes without a zone designator (interpreted as UTC).
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	pendingActionType = reflect.TypeOf((*PendingAction)(nil)).Elem()
)

// DecodeMap decodes a generic JSON value (as produced by encoding/json into
// map[string]any) into out, which must be a pointer. Struct fields are matched
// by their json tag ignoring case, underscores and dashes, so instance_id,
// InstanceId and instanceId all land in the same field. Scalars are coerced
// weakly (a numeric string fills an int field).
func DecodeMap(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		MatchName:        matchName,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToTimeHook,
			mapstructure.TextUnmarshallerHookFunc(),
			pendingActionHook,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func matchName(mapKey, fieldName string) bool {
	return normalizeName(mapKey) == normalizeName(fieldName)
}

func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '_' || r == '-' {
			continue
		}
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stringToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != timeType {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return time.Time{}, nil
	}
	if t, ok := ParseTime(s); ok {
		return t, nil
	}
	return nil, fmt.Errorf("invalid timestamp %q", s)
}

// ParseTime parses a service timestamp. It reports false when s matches none
// of the accepted layouts.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func pendingActionHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != pendingActionType {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	return decodePendingAction(m)
}
