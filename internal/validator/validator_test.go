package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type testApplicationRequest struct {
	Code        string `json:"code" validate:"required,clientcode"`
	RedirectURI string `json:"redirect_uri" validate:"required,min=3,max=200"`
}

func TestValidateStruct_Success(t *testing.T) {
	req := testLoginRequest{Email: "user@example.com", Password: "correcthorse"}
	assert.NoError(t, ValidateStruct(req))
}

func TestValidateStruct_RequiredFields(t *testing.T) {
	var req testLoginRequest
	assert.Error(t, ValidateStruct(req))
}

func TestValidateRequest_Success(t *testing.T) {
	req := testLoginRequest{Email: "user@example.com", Password: "correcthorse"}
	assert.Nil(t, ValidateRequest(req))
}

func TestValidateRequest_MultipleErrors(t *testing.T) {
	req := testLoginRequest{Email: "not-an-email", Password: "short"}
	errs := ValidateRequest(req)
	assert.NotNil(t, errs)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestValidateEmail_Invalid(t *testing.T) {
	invalidEmails := []string{"not-an-email", "@example.com", "user@", ""}

	for _, email := range invalidEmails {
		req := testLoginRequest{Email: email, Password: "correcthorse"}
		errs := ValidateRequest(req)
		assert.NotNil(t, errs, "email should be invalid: %s", email)
		assert.Contains(t, errs, "email")
	}
}

func TestValidateClientCode_Valid(t *testing.T) {
	validCodes := []string{"dashboard", "admin-portal", "billing_app", "app123"}

	for _, code := range validCodes {
		req := testApplicationRequest{Code: code, RedirectURI: "https://example.com/callback"}
		errs := ValidateRequest(req)
		assert.Nil(t, errs, "code should be valid: %s", code)
	}
}

func TestValidateClientCode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"uppercase", "Dashboard"},
		{"spaces", "my app"},
		{"special chars", "app!name"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testApplicationRequest{Code: tt.code, RedirectURI: "https://example.com/callback"}
			errs := ValidateRequest(req)
			assert.NotNil(t, errs)
			assert.Contains(t, errs, "code")
		})
	}
}

func TestValidateMinMax_Strings(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"valid", "https://example.com/cb", false},
		{"too short", "ab", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testApplicationRequest{Code: "app", RedirectURI: tt.value}
			errs := ValidateRequest(req)
			if tt.shouldErr {
				assert.NotNil(t, errs)
				assert.Contains(t, errs, "redirecturi")
			} else {
				assert.Nil(t, errs)
			}
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	req := testLoginRequest{Email: "invalid", Password: "short"}
	errs := ValidateRequest(req)
	assert.NotNil(t, errs)

	for field, msg := range errs {
		assert.NotEmpty(t, msg, "error message should not be empty for field: %s", field)
	}
}
