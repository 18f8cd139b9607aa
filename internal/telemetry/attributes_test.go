// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/browse", 200)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "GET")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/browse")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestCatalogAttributes(t *testing.T) {
	attrs := CatalogAttributes("lookup", "dleyna://media1/5")
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, CatalogOperationKey, "lookup")
	verifyAttribute(t, attrs, CatalogURIKey, "dleyna://media1/5")

	if got := CatalogAttributes("search", ""); len(got) != 1 {
		t.Errorf("Expected empty uri to be omitted, got %d attributes", len(got))
	}
}

func TestServerAttributes(t *testing.T) {
	tests := []struct {
		name    string
		udn     string
		path    string
		wantLen int
	}{
		{name: "all fields", udn: "uuid:1", path: "/com/intel/dLeynaServer/server/0", wantLen: 2},
		{name: "only udn", udn: "uuid:1", wantLen: 1},
		{name: "empty fields", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ServerAttributes(tt.udn, tt.path)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.udn != "" {
				verifyAttribute(t, attrs, ServerUDNKey, tt.udn)
			}
			if tt.path != "" {
				verifyAttribute(t, attrs, ServerPathKey, tt.path)
			}
		})
	}
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes(errors.New("boom"), "transport")
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, ErrorTypeKey, "transport")
}

func TestRecordError_NilIsNoop(t *testing.T) {
	_, span := noop.NewTracerProvider().Tracer("t").Start(t.Context(), "s")
	RecordError(span, nil, "x")
	RecordError(span, errors.New("boom"), "x")
	span.End()
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, want string) {
	t.Helper()
	for _, a := range attrs {
		if string(a.Key) == key {
			if got := a.Value.AsString(); got != want {
				t.Errorf("Attribute %s: expected %q, got %q", key, want, got)
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, want int64) {
	t.Helper()
	for _, a := range attrs {
		if string(a.Key) == key {
			if got := a.Value.AsInt64(); got != want {
				t.Errorf("Attribute %s: expected %d, got %d", key, want, got)
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
