// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "op"

	// Media server fields
	FieldUDN        = "udn"
	FieldServerName = "server_name"
	FieldPath       = "path"
	FieldURI        = "uri"
	FieldQuery      = "query"
	FieldType       = "type"

	// Bus fields
	FieldMethod  = "method"
	FieldObject  = "object"
	FieldElapsed = "elapsed"

	// Paging fields
	FieldOffset = "offset"
	FieldLimit  = "limit"
	FieldCount  = "count"
)
