package handlers

import "github.com/capoo-pm/apiserver/internal/services"

const (
	keyUserRegistered     = "USER_REGISTERED_SUCCESS"
	keyLoginSuccess       = "LOGIN_SUCCESS"
	keyTokenRefreshed     = "TOKEN_REFRESH_SUCCESS"
	keyProfileRetrieved   = "PROFILE_RETRIEVED_SUCCESS"
	keyProfileUpdated     = "PROFILE_UPDATED_SUCCESS"
	keyAvatarUploaded     = "AVATAR_UPLOADED_SUCCESS"
	keyHealthy            = "HEALTHY"
	keyRateLimited        = "RATE_LIMITED"
	keyRouteNotFound      = "ROUTE_NOT_FOUND"
	keyMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	keyMissingCredentials = "MISSING_CREDENTIALS"
)

var messages = map[string]string{
	keyUserRegistered:   "User registered successfully.",
	keyLoginSuccess:     "Login successful.",
	keyTokenRefreshed:   "Token refresh successful.",
	keyProfileRetrieved: "User profile retrieved successfully.",
	keyProfileUpdated:   "User profile updated successfully.",
	keyAvatarUploaded:   "Avatar uploaded successfully.",
	keyHealthy:          "OK",

	services.KeyEmailAlreadyRegistered: "Email already registered.",
	services.KeyInvalidCredentials:     "Invalid credentials.",
	services.KeyInvalidToken:           "Invalid token or token expired.",
	services.KeyUserNotFound:           "User not found.",
	services.KeyBadRequest:             "Bad request.",
	services.KeyValidationFailed:       "Validation failed.",
	services.KeyAvatarUploadsDisabled:  "Avatar uploads are not enabled.",
	services.KeyUnsupportedAvatar:      "Avatar must be a PNG, JPEG, GIF or WebP image of at most 5 MiB.",
	services.KeyUnexpectedError:        "An unexpected error occurred.",

	keyRateLimited:        "Too many requests. Please try again later.",
	keyRouteNotFound:      "Resource not found.",
	keyMethodNotAllowed:   "Method not allowed.",
	keyMissingCredentials: "Not authenticated.",
}

func message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
