package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing table maps correctly",
			err:         fmt.Errorf("processes: %w", ErrTableNotFound),
			wantCode:    "WB001",
			wantMessage: "The sheet does not exist in this workbook",
		},
		{
			name:        "missing column maps correctly",
			err:         fmt.Errorf("materials.unit: %w", ErrColumnNotFound),
			wantCode:    "WB003",
			wantMessage: "Expected column not found in sheet header",
		},
		{
			name:        "shape mismatch maps correctly",
			err:         ErrShapeMismatch,
			wantCode:    "WB004",
			wantMessage: "The values do not fit the requested range",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode:    "WB005",
			wantMessage: "Unable to reach the workbook store",
		},
		{
			name:        "numeric rule violation maps correctly",
			err:         ValidateCell("-3", ColumnRule{Type: FieldNumeric, Min: floatPtr(0)}),
			wantCode:    "RULE002",
			wantMessage: "Invalid number",
		},
		{
			name:        "enum rule violation maps correctly",
			err:         ValidateCell("bought", ColumnRule{Type: FieldEnum, Allowed: []string{"in-house", "purchased"}}),
			wantCode:    "RULE003",
			wantMessage: "Value is not in the allowed list",
		},
		{
			name:        "busy gate maps correctly",
			err:         ErrEditBusy,
			wantCode:    "EDIT002",
			wantMessage: "Another edit is still being processed",
		},
		{
			name:        "re-instantiated workflow",
			err:         errors.New("workflow already instantiated: row 4 already holds rows 4-6"),
			wantCode:    "WF005",
			wantMessage: "This row already holds the steps of a workflow",
		},
		{
			name:        "missing workflow name",
			err:         errors.New("workflow name is required"),
			wantCode:    "WF006",
			wantMessage: "A workflow needs a name",
		},
		{
			name:        "unknown layer",
			err:         fmt.Errorf("unknown layer: %q", "billing"),
			wantCode:    "EDIT006",
			wantMessage: "No provenance layer with this name",
		},
		{
			name:        "malformed request",
			err:         fmt.Errorf("%w: unexpected EOF", errors.New("invalid request body")),
			wantCode:    "REQ001",
			wantMessage: "The request could not be read",
		},
		{
			name:        "oversized import wins over parse error",
			err:         errors.New("parse csv: file too large: limit is 10 bytes"),
			wantCode:    "IMP004",
			wantMessage: "The file is larger than the import limit",
		},
		{
			name:        "header not found",
			err:         errors.New("header not found in the first 20 rows"),
			wantCode:    "IMP002",
			wantMessage: "No header row naming a sheet column was found",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("Workflow Not Found: w9"),
			wantCode:    "WF001",
			wantMessage: "No reporting workflow with this name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := fmt.Errorf("workflowTemplates: %w", ErrTableNotFound)
	result := FormatUserError(err)

	expected := "The sheet does not exist in this workbook (Code: WB001). Run the configuration step to create missing sheets"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrUnknownSheet,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("configure activities: %w", errors.New("layer disabled"))
		userErr := NewUserError(techErr)

		if userErr.Error() != "This provenance layer is switched off" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if userErr.User.Code != "EDIT001" {
			t.Errorf("Code = %q, want EDIT001", userErr.User.Code)
		}
		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}

func floatPtr(f float64) *float64 { return &f }
