// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dleyna

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"

	"github.com/ManuGH/dlcat/internal/metrics"
)

// ErrMalformed is returned when a reply does not have the expected shape.
var ErrMalformed = errors.New("dleyna: malformed reply")

func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// DecodeServer converts a device property bag into a Server.
func DecodeServer(props map[string]any) (Server, error) {
	var s Server
	if err := decode(props, &s); err != nil {
		return Server{}, fmt.Errorf("%w: server: %v", ErrMalformed, err)
	}
	if s.UDN == "" {
		return Server{}, fmt.Errorf("%w: server without UDN", ErrMalformed)
	}
	if s.Path == "" {
		return Server{}, fmt.Errorf("%w: server %s without Path", ErrMalformed, s.UDN)
	}
	return s, nil
}

// DecodeObject converts an object property bag into an Object.
func DecodeObject(props map[string]any) (Object, error) {
	var o Object
	if err := decode(props, &o); err != nil {
		return Object{}, fmt.Errorf("%w: object: %v", ErrMalformed, err)
	}
	if o.Path == "" {
		return Object{}, fmt.Errorf("%w: object without Path", ErrMalformed)
	}
	return o, nil
}

// decodeObjects converts a list of property bags. Entries that cannot be
// decoded are logged and skipped so one bad object does not lose a page;
// the returned count still includes them.
func decodeObjects(v any, logger zerolog.Logger) ([]Object, int, error) {
	list, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("%w: expected object list, got %T", ErrMalformed, v)
	}
	out := make([]Object, 0, len(list))
	for i, entry := range list {
		props, ok := entry.(map[string]any)
		if !ok {
			metrics.IncCatalogSkipped("decode", "malformed")
			logger.Warn().Int("index", i).Str("got", fmt.Sprintf("%T", entry)).Msg("skipping non-object entry")
			continue
		}
		obj, err := DecodeObject(props)
		if err != nil {
			metrics.IncCatalogSkipped("decode", "malformed")
			logger.Warn().Err(err).Int("index", i).Msg("skipping undecodable object")
			continue
		}
		out = append(out, obj)
	}
	return out, len(list), nil
}

func decodeStrings(v any) ([]string, error) {
	var out []string
	if v == nil {
		return out, nil
	}
	if err := decode(v, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

func decodeProps(v any) (map[string]any, error) {
	props, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected property map, got %T", ErrMalformed, v)
	}
	return props, nil
}
