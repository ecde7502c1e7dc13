package repository

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/emmanuelhcpk/wolmo-networking/errors"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
)

type account struct {
	ID        int           `json:"id"`
	Email     string        `json:"email" validate:"required,email"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
	Tags      []string      `json:"tags,omitempty"`
}

func TestDecode_EmptyBody(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t"} {
		got, err := Decode(context.Background(), []byte(body), func(v any) (map[string]any, error) {
			obj, ok := v.(map[string]any)
			if !ok {
				return nil, stderrors.New("not an object")
			}
			return obj, nil
		}, nil)
		if err != nil {
			t.Fatalf("body %q: unexpected error: %v", body, err)
		}
		if len(got) != 0 {
			t.Errorf("body %q: expected empty object, got %v", body, got)
		}
	}
}

func TestDecode_JSONError(t *testing.T) {
	called := false
	_, err := Decode(context.Background(), []byte("not json"), Ignore(), func(context.Context, error) { called = true })
	if !errors.IsJSON(err) {
		t.Fatalf("expected JSON error, got %v", err)
	}
	if called {
		t.Error("handler must not run for parse failures")
	}
}

func TestDecode_HandlerReceivesCause(t *testing.T) {
	cause := stderrors.New("missing field")
	var seen []error
	_, err := Decode(context.Background(), []byte(`{}`), func(any) (int, error) { return 0, cause },
		func(_ context.Context, err error) { seen = append(seen, err) })

	if !errors.IsDecode(err) || !stderrors.Is(err, cause) {
		t.Fatalf("expected decode error wrapping cause, got %v", err)
	}
	if len(seen) != 1 || seen[0] != cause {
		t.Errorf("expected handler once with cause, got %v", seen)
	}
}

func TestInto_Struct(t *testing.T) {
	body := map[string]any{
		"id":         float64(12),
		"email":      "ada@example.com",
		"created_at": "2026-03-01T10:00:00Z",
		"ttl":        "90s",
		"tags":       []any{"a", "b"},
		"unknown":    true,
	}
	got, err := Into[account]()(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 12 || got.Email != "ada@example.com" || got.TTL != 90*time.Second || len(got.Tags) != 2 {
		t.Errorf("unexpected account %+v", got)
	}
	if !got.CreatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected created_at %v", got.CreatedAt)
	}
}

func TestInto_Slice(t *testing.T) {
	got, err := Into[[]account]()([]any{
		map[string]any{"id": float64(1)},
		map[string]any{"id": float64(2)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].ID != 2 {
		t.Errorf("unexpected accounts %+v", got)
	}
}

func TestInto_TypeMismatch(t *testing.T) {
	if _, err := Into[account]()(map[string]any{"id": "twelve"}); err == nil {
		t.Error("expected error for string id")
	}
	if _, err := Into[account]()("text"); err == nil {
		t.Error("expected error for non-object body")
	}
}

type counter struct {
	ID    int64   `json:"id"`
	Count int     `json:"count"`
	Small uint8   `json:"small"`
	Ratio float64 `json:"ratio"`
	Label string  `json:"label"`
}

func TestDecode_NumbersKeepPrecision(t *testing.T) {
	got, err := Decode(context.Background(), []byte(`{"id":9007199254740993,"count":3,"small":255,"ratio":0.25}`),
		Into[counter](), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 9007199254740993 {
		t.Errorf("expected exact id 9007199254740993, got %d", got.ID)
	}
	if got.Count != 3 || got.Small != 255 || got.Ratio != 0.25 {
		t.Errorf("unexpected counter %+v", got)
	}
}

func TestDecode_NumberShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"fraction into int", `{"count":1.5}`},
		{"overflow uint8", `{"small":256}`},
		{"negative into uint8", `{"small":-1}`},
		{"overflow int64", `{"id":9223372036854775808}`},
		{"number into string", `{"label":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := Decode(context.Background(), []byte(tt.body), Into[counter](),
				func(context.Context, error) { calls++ })
			if !errors.IsDecode(err) {
				t.Fatalf("expected decode error, got %v", err)
			}
			if calls != 1 {
				t.Errorf("expected handler once, got %d", calls)
			}
		})
	}
}

func TestDecode_RawValuesUseNumbers(t *testing.T) {
	got, err := Decode(context.Background(), []byte(`{"n":12}`), Into[map[string]any](), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["n"] != int64(12) {
		t.Errorf("expected int64(12) for an untyped value, got %T %v", got["n"], got["n"])
	}
}

func TestDecode_TrailingData(t *testing.T) {
	_, err := Decode(context.Background(), []byte(`{} {}`), Ignore(), nil)
	if !errors.IsJSON(err) {
		t.Fatalf("expected JSON error for trailing data, got %v", err)
	}
	if _, err := Decode(context.Background(), []byte("{}\n\t "), Ignore(), nil); err != nil {
		t.Errorf("trailing whitespace should be accepted, got %v", err)
	}
}

func TestField(t *testing.T) {
	dec := Field("data", Into[[]string]())

	got, err := dec(map[string]any{"data": []any{"x", "y"}})
	if err != nil || len(got) != 2 {
		t.Fatalf("unexpected result %v %v", got, err)
	}

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing key", map[string]any{}, `missing key "data"`},
		{"not an object", []any{}, "got array"},
		{"inner failure", map[string]any{"data": "x"}, `key "data"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dec(tt.body)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestIgnore(t *testing.T) {
	if _, err := Ignore()(nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidated(t *testing.T) {
	dec := Validated(Into[account]())

	if _, err := dec(map[string]any{"id": float64(1), "email": "ada@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := dec(map[string]any{"id": float64(1), "email": "nope"})
	var verr *ValidationError
	if !stderrors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "email" {
		t.Errorf("unexpected fields %+v", verr.Fields)
	}
	if !strings.Contains(verr.Error(), "email: must be a valid email address") {
		t.Errorf("unexpected message %q", verr.Error())
	}

	_, err = dec(map[string]any{"id": float64(1)})
	if !stderrors.As(err, &verr) || verr.Fields[0].Message != "is required" {
		t.Errorf("expected required failure, got %v", err)
	}
}

func TestValidated_NonStruct(t *testing.T) {
	got, err := Validated(Into[[]int]())([]any{float64(1)})
	if err != nil || len(got) != 1 {
		t.Errorf("non-struct values should pass validation, got %v %v", got, err)
	}
	ptr, err := Validated(Into[*account]())(nil)
	if err != nil || ptr != nil {
		t.Errorf("nil pointers should pass validation, got %v %v", ptr, err)
	}
}

func TestLogDecodeErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)

	LogDecodeErrors(log)(context.Background(), stderrors.New("bad shape"))
	if !strings.Contains(buf.String(), "bad shape") || !strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("expected error log, got %s", buf.String())
	}
}
