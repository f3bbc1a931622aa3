// Package errors provides structured error handling with stable machine codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Auth errors
	CodeAuthInvalidCredentials Code = "AUTH_INVALID_CREDENTIALS"
	CodeAuthAccountLocked      Code = "AUTH_ACCOUNT_LOCKED"
	CodeAuthAccountInactive    Code = "AUTH_ACCOUNT_INACTIVE"
	CodeAuthUsernameTaken      Code = "AUTH_USERNAME_TAKEN"
	CodeAuthEmailTaken         Code = "AUTH_EMAIL_TAKEN"
	CodeAuthPasswordPolicy     Code = "AUTH_PASSWORD_POLICY"
	CodeAuthRefreshInvalid     Code = "AUTH_REFRESH_TOKEN_INVALID"
	CodeAuthResetTokenInvalid  Code = "AUTH_RESET_TOKEN_INVALID"
	CodeAuthAccessTokenInvalid Code = "AUTH_ACCESS_TOKEN_INVALID"
	CodeAuthAccessTokenExpired Code = "AUTH_ACCESS_TOKEN_EXPIRED"
	CodeAuthAccessTokenMissing Code = "AUTH_ACCESS_TOKEN_MISSING"

	// Character errors
	CodeCharacterNameInvalid    Code = "CHARACTER_NAME_INVALID"
	CodeCharacterStatOutOfRange Code = "CHARACTER_STAT_OUT_OF_RANGE"
	CodeCharacterBudgetExceeded Code = "CHARACTER_STAT_BUDGET_EXCEEDED"
	CodeCharacterProgression    Code = "CHARACTER_PROGRESSION_INVALID"
	CodeCharacterNotOwned       Code = "CHARACTER_NOT_OWNED"
	CodeCharacterNotTemplate    Code = "CHARACTER_NOT_TEMPLATE"
	CodeCharacterVersionMissing Code = "CHARACTER_VERSION_MISSING"
	CodeCharacterImportInvalid  Code = "CHARACTER_IMPORT_INVALID"
	CodeCharacterSkillUnmet     Code = "CHARACTER_SKILL_REQUIREMENTS_UNMET"
	CodeCharacterEquipmentOwner Code = "CHARACTER_EQUIPMENT_NOT_OWNED"

	// Adventure errors
	CodeAdventureNotFound    Code = "ADVENTURE_NOT_FOUND"
	CodeAdventureNotOwned    Code = "ADVENTURE_NOT_OWNED"
	CodeAdventureGMFailure   Code = "ADVENTURE_GM_FAILURE"
	CodeAdventureStatInvalid Code = "ADVENTURE_STAT_INVALID"

	// Request errors
	CodeValidation       Code = "VALIDATION_FAILED"
	CodeMalformedRequest Code = "MALFORMED_REQUEST"
	CodeRateLimited      Code = "RATE_LIMITED"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeInternal      Code = "INTERNAL"
)

// HTTPStatus maps the code to the HTTP status the API surfaces.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAuthInvalidCredentials,
		CodeAuthAccountLocked,
		CodeAuthAccountInactive,
		CodeAuthRefreshInvalid,
		CodeAuthAccessTokenInvalid,
		CodeAuthAccessTokenExpired,
		CodeAuthAccessTokenMissing:
		return http.StatusUnauthorized
	case CodeAuthUsernameTaken,
		CodeAuthEmailTaken,
		CodeAuthPasswordPolicy,
		CodeAuthResetTokenInvalid,
		CodeCharacterImportInvalid,
		CodeMalformedRequest:
		return http.StatusBadRequest
	case CodeCharacterNameInvalid,
		CodeCharacterStatOutOfRange,
		CodeCharacterBudgetExceeded,
		CodeCharacterProgression,
		CodeCharacterSkillUnmet,
		CodeValidation,
		CodeAdventureStatInvalid:
		return http.StatusUnprocessableEntity
	case CodeCharacterNotOwned,
		CodeCharacterNotTemplate,
		CodeCharacterEquipmentOwner,
		CodeAdventureNotOwned:
		return http.StatusForbidden
	case CodeNotFound,
		CodeCharacterVersionMissing,
		CodeAdventureNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeAdventureGMFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to surface to API clients.
// Server-side failures collapse to a generic message so internal detail
// never leaks through responses.
func PublicMessage(err error) string {
	code := CodeOf(err)
	switch code.HTTPStatus() {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusBadGateway:
		return "adventure action failed, please retry"
	}
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	return "request failed"
}
