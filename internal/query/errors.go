// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package query

import (
	"errors"
	"fmt"
)

// ErrUnsupportedField matches every *UnsupportedFieldError.
var ErrUnsupportedField = errors.New("unsupported query field")

// Reasons reported by UnsupportedFieldError.
const (
	ReasonUnknown = "unknown"
	ReasonDevice  = "device"
)

// UnsupportedFieldError names the first query tag that could not be compiled.
type UnsupportedFieldError struct {
	Field  string
	Reason string
}

func (e *UnsupportedFieldError) Error() string {
	if e.Reason == ReasonDevice {
		return fmt.Sprintf("query field %q not supported by device", e.Field)
	}
	return fmt.Sprintf("query field %q not supported", e.Field)
}

// Is reports whether target is ErrUnsupportedField.
func (e *UnsupportedFieldError) Is(target error) bool {
	return target == ErrUnsupportedField
}
