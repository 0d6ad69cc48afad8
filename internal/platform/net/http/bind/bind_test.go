package bind

import (
	"testing"

	perr "storepulse/internal/platform/errors"
)

type row struct {
	StoreID string  `csv:"store_id" validate:"required"`
	Uptime  float64 `json:"uptime_last_hour" validate:"gte=0"`
	Status  string  `csv:"status" validate:"oneof=active inactive"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		in        row
		wantField string
		wantMsg   string
	}{
		{name: "ok", in: row{StoreID: "s1", Uptime: 1, Status: "active"}},
		{name: "missing store", in: row{Status: "active"}, wantField: "store_id", wantMsg: "store_id is a required field"},
		{name: "negative", in: row{StoreID: "s1", Uptime: -1, Status: "inactive"}, wantField: "uptime_last_hour", wantMsg: "uptime_last_hour must be at least 0"},
		{name: "bad status", in: row{StoreID: "s1", Status: "closed"}, wantField: "status"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tc.in)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected: %v", err)
				}
				return
			}
			e, ok := perr.As(err)
			if !ok || e.Code() != perr.ErrorCodeValidation {
				t.Fatalf("want validation error, got %v", err)
			}
			if e.Field() != tc.wantField {
				t.Fatalf("field=%q want %q", e.Field(), tc.wantField)
			}
			if tc.wantMsg != "" && perr.WireFrom(err).Message != tc.wantMsg {
				t.Fatalf("msg=%q want %q", perr.WireFrom(err).Message, tc.wantMsg)
			}
		})
	}
}

func TestStruct_NonStruct(t *testing.T) {
	t.Parallel()
	if err := Struct(42); perr.CodeOf(err) != perr.ErrorCodeUnknown || err == nil {
		t.Fatalf("non struct should be an internal error, got %v", err)
	}
}

func TestVar(t *testing.T) {
	t.Parallel()
	if err := Var("report_id", "5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77", "required,uuid"); err != nil {
		t.Fatalf("valid uuid: %v", err)
	}
	err := Var("report_id", "nope", "required,uuid")
	e, ok := perr.As(err)
	if !ok || e.Code() != perr.ErrorCodeInvalidArgument || e.Field() != "report_id" {
		t.Fatalf("got %v", err)
	}
}

// registration mutates the shared validator so this one stays serial
func TestRegisterTagMessage(t *testing.T) {
	if err := RegisterValidation("even_len", func(fl FieldLevel) bool {
		return len(fl.Field().String())%2 == 0
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	RegisterTagMessage("even_len", "{0} needs an even length")

	type in struct {
		Code string `json:"code" validate:"even_len"`
	}
	err := Struct(in{Code: "abc"})
	if got := perr.WireFrom(err).Message; got != "code needs an even length" {
		t.Fatalf("msg=%q", got)
	}
}
