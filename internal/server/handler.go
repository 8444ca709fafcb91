package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
)

// handlerFunc is the uniform shape every routed method is reduced to.
type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// bind adapts a typed operation to a handlerFunc. Params are decoded into a
// fresh Req with mapstructure, using the request's json tags; unknown keys and
// wrongly typed values are rejected as invalid params.
func bind[Req, Resp any](run func(context.Context, *Req) (*Resp, error)) handlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		req := new(Req)
		if err := decodeParams(params, req); err != nil {
			return nil, err
		}
		return run(ctx, req)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	args := map[string]any{}
	if len(params) > 0 {
		if params[0] != '{' {
			return errutil.Invalidf("params must be an object")
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return errutil.Invalidf("invalid params: %v", err)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		Squash:      true,
		DecodeHook:  integralNumbers,
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("build params decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return errutil.Invalidf("invalid params: %v", err)
	}
	return nil
}

// integralNumbers refuses to truncate fractional JSON numbers into integer fields.
func integralNumbers(from, to reflect.Type, data any) (any, error) {
	f, ok := data.(float64)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
	}
	return data, nil
}
