// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dbusconn

import (
	"reflect"

	"github.com/godbus/dbus/v5"
)

// Plain converts a D-Bus reply value into plain Go values: variants are
// unwrapped, object paths become strings, arrays become []any and
// dictionaries with string keys become map[string]any. Byte arrays are kept.
func Plain(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case dbus.Variant:
		return Plain(x.Value())
	case dbus.ObjectPath:
		return string(x)
	case string, bool, byte, int16, uint16, int32, uint32, int64, uint64, float64, []byte:
		return x
	case map[string]dbus.Variant:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Plain(val.Value())
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Plain(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Plain(iter.Value().Interface())
		}
		return out
	}
	return v
}
