package httputil

// Machine-readable error codes returned alongside error messages.
// Clients should branch on these, not on message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInternalError      = "INTERNAL_ERROR"

	// Registration / login
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeFullNameTooLong    = "FULL_NAME_TOO_LONG"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeUserNotFound       = "USER_NOT_FOUND"

	// Bearer token handling
	CodeMissingToken      = "MISSING_TOKEN"
	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeInvalidToken      = "INVALID_TOKEN"

	// Tasks
	CodeTaskNotFound       = "TASK_NOT_FOUND"
	CodeTitleRequired      = "TITLE_REQUIRED"
	CodeTitleTooLong       = "TITLE_TOO_LONG"
	CodeDescriptionTooLong = "DESCRIPTION_TOO_LONG"
)
