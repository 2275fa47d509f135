// Package core provides the workbook model and store contracts for provenance sheets.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When operators encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Workbook Errors (WB001-WB099)
//
// Errors raised by the tabular store:
//
//	WB001 - Table not found: The sheet does not exist in this workbook
//	        Action: Run the configuration step to create missing sheets
//	        Patterns: "table not found"
//
//	WB002 - Table exists: A sheet with this name already exists
//	        Action: Choose another name or reset the workbook
//	        Patterns: "table already exists"
//
//	WB003 - Column not found: Expected column not found in sheet header
//	        Action: Restore the column header or re-run configuration
//	        Patterns: "column not found", "missing required column"
//
//	WB004 - Invalid range: The requested cell range is empty or out of bounds
//	        Action: Check row and column numbers
//	        Patterns: "empty range", "range out of bounds", "range shape"
//
//	WB005 - Store unavailable: Unable to reach the workbook store
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused", "connection reset"
//
//	WB006 - Unknown sheet: The sheet has no registered layout
//	        Action: Edits on this sheet are not managed
//	        Patterns: "unknown sheet"
//
// # Rule Errors (RULE001-RULE099)
//
// Errors raised while validating cells against column rules:
//
//	RULE001 - Invalid date
//	RULE002 - Invalid number
//	RULE003 - Value not allowed (enumerated or list column)
//	RULE004 - Invalid boolean
//
// # Workflow Errors (WF001-WF099)
//
//	WF001 - Workflow not found: No reporting workflow with this name
//	WF002 - Duplicate workflow: The name is used by more than one workflow
//	WF003 - Group reused: A group id appears in two separate mini tables
//	WF004 - Empty workflow: A workflow needs at least one step
//	WF005 - Already instantiated: The row already holds the steps of a workflow
//	WF006 - Missing name: A workflow needs a name
//
// # Edit Errors (EDIT001-EDIT099)
//
//	EDIT001 - Layer disabled: The provenance layer is switched off
//	EDIT002 - Busy: Another edit is still being processed
//	EDIT003 - Request cancelled
//	EDIT004 - Request timeout
//	EDIT005 - Rate limited
//	EDIT006 - Unknown layer
//	EDIT007 - Core layer cannot be disabled
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Empty file
//	IMP002 - Header not found in the leading rows
//	IMP003 - No data rows below the header
//	IMP004 - File too large
//	IMP005 - Too many rows
//	IMP006 - Malformed CSV
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Malformed request body or parameters
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Workbook Errors (WB001-WB006)
	// =========================================================================
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "The sheet does not exist in this workbook",
			Action:  "Run the configuration step to create missing sheets",
			Code:    "WB001",
		},
	},
	{
		pattern: "table already exists",
		msg: UserMessage{
			Message: "A sheet with this name already exists",
			Action:  "Choose another name or reset the workbook",
			Code:    "WB002",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "Expected column not found in sheet header",
			Action:  "Restore the column header or re-run configuration",
			Code:    "WB003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Expected column not found in sheet header",
			Action:  "Restore the column header or re-run configuration",
			Code:    "WB003",
		},
	},
	{
		pattern: "empty range",
		msg: UserMessage{
			Message: "The requested cell range is empty",
			Action:  "Check row and column numbers",
			Code:    "WB004",
		},
	},
	{
		pattern: "range out of bounds",
		msg: UserMessage{
			Message: "The requested cell range is out of bounds",
			Action:  "Check row and column numbers",
			Code:    "WB004",
		},
	},
	{
		pattern: "range shape",
		msg: UserMessage{
			Message: "The values do not fit the requested range",
			Action:  "Check row and column numbers",
			Code:    "WB004",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the workbook store",
			Action:  "Please try again in a few moments",
			Code:    "WB005",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Connection to the workbook store was interrupted",
			Action:  "Please try again",
			Code:    "WB005",
		},
	},
	{
		pattern: "unknown sheet",
		msg: UserMessage{
			Message: "The sheet has no registered layout",
			Action:  "Edits on this sheet are not managed",
			Code:    "WB006",
		},
	},

	// =========================================================================
	// Rule Errors (RULE001-RULE004)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024",
			Code:    "RULE001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number",
			Action:  "Enter a plain decimal number within the allowed range",
			Code:    "RULE002",
		},
	},
	{
		pattern: "invalid enum",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Pick one of the values offered by the column",
			Code:    "RULE003",
		},
	},
	{
		pattern: "must be true/false",
		msg: UserMessage{
			Message: "Value must be TRUE or FALSE",
			Action:  "Enter TRUE or FALSE",
			Code:    "RULE004",
		},
	},

	// =========================================================================
	// Workflow Errors (WF001-WF006)
	// =========================================================================
	{
		pattern: "workflow not found",
		msg: UserMessage{
			Message: "No reporting workflow with this name",
			Action:  "Create the workflow template first",
			Code:    "WF001",
		},
	},
	{
		pattern: "duplicate workflow",
		msg: UserMessage{
			Message: "This workflow name is used by more than one template",
			Action:  "Rename one of the templates so names are unique",
			Code:    "WF002",
		},
	},
	{
		pattern: "group id reused",
		msg: UserMessage{
			Message: "A group id appears in two separate mini tables",
			Action:  "Remove the stray rows or give them a new group id",
			Code:    "WF003",
		},
	},
	{
		pattern: "workflow already instantiated",
		msg: UserMessage{
			Message: "This row already holds the steps of a workflow",
			Action:  "Clear the workflow rows before choosing another workflow",
			Code:    "WF005",
		},
	},
	{
		pattern: "workflow name is required",
		msg: UserMessage{
			Message: "A workflow needs a name",
			Action:  "Enter a workflow name",
			Code:    "WF006",
		},
	},
	{
		pattern: "workflow has no steps",
		msg: UserMessage{
			Message: "A workflow needs at least one step",
			Action:  "Add steps to the workflow template",
			Code:    "WF004",
		},
	},

	// =========================================================================
	// Edit Errors (EDIT001-EDIT007)
	// =========================================================================
	{
		pattern: "layer disabled",
		msg: UserMessage{
			Message: "This provenance layer is switched off",
			Action:  "Enable the layer before configuring it",
			Code:    "EDIT001",
		},
	},
	{
		pattern: "edit in progress",
		msg: UserMessage{
			Message: "Another edit is still being processed",
			Action:  "Please wait a moment and try again",
			Code:    "EDIT002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "EDIT003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "EDIT004",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "EDIT005",
		},
	},
	{
		pattern: "unknown layer",
		msg: UserMessage{
			Message: "No provenance layer with this name",
			Action:  "List the layers and pick one of them",
			Code:    "EDIT006",
		},
	},
	{
		pattern: "layer cannot be disabled",
		msg: UserMessage{
			Message: "The core layer is always on",
			Action:  "Only optional layers can be switched off",
			Code:    "EDIT007",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP006)
	// =========================================================================
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Check that you selected the right file",
			Code:    "IMP001",
		},
	},
	{
		pattern: "header not found",
		msg: UserMessage{
			Message: "No header row naming a sheet column was found",
			Action:  "Add a header row with the sheet's column names",
			Code:    "IMP002",
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "The file has a header but no data",
			Action:  "Add rows below the header",
			Code:    "IMP003",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The file is larger than the import limit",
			Action:  "Split the file into smaller parts",
			Code:    "IMP004",
		},
	},
	{
		pattern: "too many rows",
		msg: UserMessage{
			Message: "The file has more rows than one import may add",
			Action:  "Split the file into smaller parts",
			Code:    "IMP005",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "The file is not valid CSV",
			Action:  "Save the sheet as CSV and try again",
			Code:    "IMP006",
		},
	},

	// =========================================================================
	// Request Errors (REQ001)
	// =========================================================================
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the request body and parameters",
			Code:    "REQ001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The orchestrator surfaces UserErrors to the operator with an alert.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
