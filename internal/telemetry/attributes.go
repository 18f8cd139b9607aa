// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Catalog attributes
	CatalogOperationKey = "catalog.operation"
	CatalogURIKey       = "catalog.uri"
	CatalogURICountKey  = "catalog.uri_count"
	CatalogResultKey    = "catalog.results"
	CatalogExactKey     = "catalog.exact"

	// Media server attributes
	ServerUDNKey      = "dleyna.udn"
	ServerPathKey     = "dleyna.path"
	SearchExprKey     = "dleyna.search"
	BusAddressKey     = "dleyna.bus"
	BusDestinationKey = "dleyna.destination"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// CatalogAttributes creates span attributes for a catalog operation on uri.
// An empty uri is omitted.
func CatalogAttributes(op, uri string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(CatalogOperationKey, op)}
	if uri != "" {
		attrs = append(attrs, attribute.String(CatalogURIKey, uri))
	}
	return attrs
}

// ServerAttributes creates span attributes identifying a media server object.
func ServerAttributes(udn, path string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if udn != "" {
		attrs = append(attrs, attribute.String(ServerUDNKey, udn))
	}
	if path != "" {
		attrs = append(attrs, attribute.String(ServerPathKey, path))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// RecordError marks span as failed when err is non-nil.
func RecordError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(ErrorAttributes(err, errorType)...)
}
