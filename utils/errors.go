package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthorizationDenied is returned when a role or ownership predicate fails.
type AuthorizationDenied struct {
	Reason string
}

func (e *AuthorizationDenied) Error() string {
	return e.Reason
}

func Deny(reason string) error {
	return &AuthorizationDenied{Reason: reason}
}

// ValidationFailed rejects a write without any state change.
type ValidationFailed struct {
	Field string
	Rule  string
}

func (e *ValidationFailed) Error() string {
	if e.Field == "" {
		return e.Rule
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Rule)
}

// NotFoundError is returned when a referenced record does not resolve.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// NotificationDeliveryFailed is only ever logged.
type NotificationDeliveryFailed struct {
	Recipient string
	Err       error
}

func (e *NotificationDeliveryFailed) Error() string {
	return fmt.Sprintf("notification delivery to %s failed: %v", e.Recipient, e.Err)
}

func (e *NotificationDeliveryFailed) Unwrap() error {
	return e.Err
}

// PaymentGatewayError wraps a failure returned by the checkout provider.
type PaymentGatewayError struct {
	Err error
}

func (e *PaymentGatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %v", e.Err)
}

func (e *PaymentGatewayError) Unwrap() error {
	return e.Err
}

// RespondError writes the client-visible form of err. Unexpected errors are
// logged and reported without detail.
func RespondError(c *gin.Context, err error) {
	var denied *AuthorizationDenied
	var invalid *ValidationFailed
	var missing *NotFoundError
	var gateway *PaymentGatewayError

	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Reason})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": capitalize(invalid.Rule), "field": invalid.Field})
	case errors.As(err, &missing):
		c.JSON(http.StatusNotFound, gin.H{"error": missing.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &gateway):
		LogErrorWithUser(c.GetString("user_id"), gateway.Err, "Payment gateway failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error"})
	default:
		LogErrorWithUser(c.GetString("user_id"), err, "Unexpected error in "+c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
