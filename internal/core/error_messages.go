package core

// error_messages.go maps technical errors to messages safe to show a user.
//
// Codes are grouped by category so support staff can find the cause from
// a code a user quotes back:
//
//	VAL001  Invalid input data         a form field failed validation
//	VAL002  Invalid request body       body was not JSON or form data
//	DB001   Duplicate email            unique email constraint hit
//	DB002   Connection refused         database unreachable
//	DB003   Connection reset           connection dropped mid-insert
//	DB004   Database timeout           driver-level I/O timeout
//	DB005   Database error             any other insert failure
//	FILE001 File too large             upload over IMPORT_MAX_FILE_SIZE
//	FILE002 No file                    multipart request without a file
//	FILE003 Missing column             CSV header lacks a required column
//	FILE004 File not found             configured CSV path does not exist
//	FILE005 Unreadable file            any other source read fault
//	IMP001  System busy                every import slot is taken
//	IMP002  Shutting down              server is draining
//	IMP003  Import timed out           run exceeded IMPORT_TIMEOUT
//	IMP004  Import cancelled           client went away mid-run
//	RATE001 Too many requests          per-IP limit exceeded
//	ERR000  Unknown error              anything else; check the logs
//
// Patterns match case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is user-facing error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Validation
	{
		pattern: "invalid input data",
		msg: UserMessage{
			Message: "Invalid input data",
			Action:  "Check each field and try again",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "Invalid request body",
			Action:  "Send the contact as JSON or form data",
			Code:    "VAL002",
		},
	},

	// Database
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "Email already exists. Please use another email.",
			Action:  "Use a different email address",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Database error",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database error",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "i/o timeout",
		msg: UserMessage{
			Message: "Database error",
			Action:  "Please try again later",
			Code:    "DB004",
		},
	},
	{
		pattern: "store error",
		msg: UserMessage{
			Message: "Database error",
			Action:  "Please try again or contact support",
			Code:    "DB005",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Attach a CSV file in the \"file\" field",
			Code:    "FILE002",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "Include first_name, last_name, email and age in the header",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "Import file not found",
			Action:  "Check IMPORT_CSV_PATH",
			Code:    "FILE004",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "Import file not found",
			Action:  "Check IMPORT_CSV_PATH",
			Code:    "FILE004",
		},
	},
	{
		pattern: "source read failed",
		msg: UserMessage{
			Message: "Could not read the CSV file",
			Action:  "Check the file and run the import again",
			Code:    "FILE005",
		},
	},

	// Import runs
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "shutting down",
		msg: UserMessage{
			Message: "Server is shutting down",
			Action:  "Please try again shortly",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Import timed out",
			Action:  "Try a smaller file",
			Code:    "IMP003",
		},
	},
	{
		pattern: "import cancelled",
		msg: UserMessage{
			Message: "Import was cancelled",
			Action:  "Run the import again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP004",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. Unknown
// errors map to ERR000.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
