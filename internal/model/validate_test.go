package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAutomation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		in     Automation
		fields []string
	}{
		{"valid", Automation{Name: "DCA into HEX"}, nil},
		{"missing name", Automation{}, []string{"name"}},
		{"name too long", Automation{Name: strings.Repeat("x", 201)}, []string{"name"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAutomation(&tc.in)
			assertFieldErrors(t, err, tc.fields)
		})
	}
}

func TestValidateNode(t *testing.T) {
	for _, tc := range []struct {
		name   string
		in     Node
		fields []string
	}{
		{
			"valid",
			Node{ID: "nd-a", Kind: KindTransfer, Params: TransferParams{Recipient: "0xabc", Amount: "1"}},
			nil,
		},
		{
			"missing id",
			Node{Kind: KindTransfer, Params: TransferParams{Recipient: "0xabc", Amount: "1"}},
			[]string{"id"},
		},
		{
			"invalid kind",
			Node{ID: "nd-a", Kind: NodeKind("stake"), Params: TransferParams{Recipient: "0xabc", Amount: "1"}},
			[]string{"kind"},
		},
		{
			"missing params",
			Node{ID: "nd-a", Kind: KindTransfer},
			[]string{"params"},
		},
		{
			"params kind mismatch",
			Node{ID: "nd-a", Kind: KindSwap, Params: TransferParams{Recipient: "0xabc", Amount: "1"}},
			[]string{"params"},
		},
		{
			"invalid params",
			Node{ID: "nd-a", Kind: KindTransfer, Params: TransferParams{Amount: "nope"}},
			[]string{"recipient", "amount"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateNode(&tc.in)
			assertFieldErrors(t, err, tc.fields)
		})
	}
}

func TestValidateConnection(t *testing.T) {
	for _, tc := range []struct {
		name   string
		in     Connection
		fields []string
	}{
		{"valid", Connection{SourceID: "nd-a", TargetID: "nd-b"}, nil},
		{"missing source", Connection{TargetID: "nd-b"}, []string{"source_id"}},
		{"missing target", Connection{SourceID: "nd-a"}, []string{"target_id"}},
		{"self loop", Connection{SourceID: "nd-a", TargetID: "nd-a"}, []string{"target_id"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConnection(&tc.in)
			assertFieldErrors(t, err, tc.fields)
		})
	}
}

// assertFieldErrors checks that err is nil when fields is empty, and otherwise
// a *ValidationError naming exactly the expected fields.
func assertFieldErrors(t *testing.T, err error, fields []string) {
	t.Helper()
	if len(fields) == 0 {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Errors) != len(fields) {
		t.Fatalf("expected %d field error(s), got %d: %v", len(fields), len(ve.Errors), ve)
	}
	for i, f := range fields {
		if ve.Errors[i].Field != f {
			t.Errorf("error %d field = %q, want %q", i, ve.Errors[i].Field, f)
		}
	}
}
