package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/emmanuelhcpk/wolmo-networking/errors"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
)

// Decoder turns a parsed JSON value (nil, bool, json.Number, string, []any or
// map[string]any) into a domain value. Returning an error built with
// errors.Custom surfaces that domain error to the caller; any other error is
// reported as a decode failure.
type Decoder[T any] func(body any) (T, error)

// DecodeErrorHandler observes decode failures. It is called synchronously,
// once per failure, with the error wrapped by the returned decode error.
type DecodeErrorHandler func(ctx context.Context, err error)

// LogDecodeErrors returns a handler that logs decode failures at error level.
func LogDecodeErrors(log *logger.Logger) DecodeErrorHandler {
	return func(ctx context.Context, err error) {
		log.WithContext(ctx).Error("response does not match the expected shape", logger.Fields(
			logger.FieldError, err.Error(),
		))
	}
}

var emptyObject = []byte("{}")

// Decode parses body as JSON and runs decoder on the result. An empty body is
// parsed as {}. onError may be nil.
func Decode[T any](ctx context.Context, body []byte, decoder Decoder[T], onError DecodeErrorHandler) (T, error) {
	var zero T
	if len(bytes.TrimSpace(body)) == 0 {
		body = emptyObject
	}

	parsed, err := parseJSON(body)
	if err != nil {
		return zero, errors.JSON(err)
	}

	value, err := decoder(parsed)
	if err == nil {
		return value, nil
	}
	if e, ok := errors.AsError(err); ok && e.Kind == errors.KindCustom {
		return zero, e
	}
	if onError != nil {
		onError(ctx, err)
	}
	return zero, errors.Decode(err)
}

// parseBody parses a failure body for the error decoder. ok is false for
// bodies that are empty or not JSON.
func parseBody(body []byte) (any, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	parsed, err := parseJSON(body)
	if err != nil {
		return nil, false
	}
	return parsed, true
}

// parseJSON parses a single JSON value. Numbers are kept as json.Number so
// integers beyond 2^53 survive until a decoder converts them.
func parseJSON(body []byte) (any, error) {
	r := bytes.NewReader(body)
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, err
	}
	rest, err := io.ReadAll(io.MultiReader(dec.Buffered(), r))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return parsed, nil
}
