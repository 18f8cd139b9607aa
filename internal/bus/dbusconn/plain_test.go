// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dbusconn

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "x", "x"},
		{"uint32", uint32(7), uint32(7)},
		{"object path", dbus.ObjectPath("/com/intel/dLeynaServer/server/0"), "/com/intel/dLeynaServer/server/0"},
		{"variant", dbus.MakeVariant(int32(3)), int32(3)},
		{"path list", []dbus.ObjectPath{"/a", "/b"}, []any{"/a", "/b"}},
		{"string list", []string{"Path", "DisplayName"}, []any{"Path", "DisplayName"}},
		{"bytes kept", []byte("ab"), []byte("ab")},
		{
			"property bag",
			map[string]dbus.Variant{
				"Path":       dbus.MakeVariant(dbus.ObjectPath("/x")),
				"SearchCaps": dbus.MakeVariant([]string{"*"}),
				"Duration":   dbus.MakeVariant(int32(10)),
			},
			map[string]any{"Path": "/x", "SearchCaps": []any{"*"}, "Duration": int32(10)},
		},
		{
			"object list",
			[]map[string]dbus.Variant{{"DisplayName": dbus.MakeVariant("A")}},
			[]any{map[string]any{"DisplayName": "A"}},
		},
		{
			"nested variant map",
			map[string]any{"k": dbus.MakeVariant(map[string]dbus.Variant{"x": dbus.MakeVariant(true)})},
			map[string]any{"k": map[string]any{"x": true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Plain(tt.in)); diff != "" {
				t.Errorf("Plain mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
