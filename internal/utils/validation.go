package utils

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/nyaruka/phonenumbers"
)

var (
	// rxPhone validates a phone number according to the E.164 standard https://en.wikipedia.org/wiki/E.164
	rxPhone                   = regexp.MustCompile(`^\+[1-9]{1}[0-9]{9,14}$`)
	ErrInvalidE164PhoneNumber = fmt.Errorf("the provided phone number is not a valid E.164 number")
	ErrEmptyPhoneNumber       = fmt.Errorf("phone number cannot be empty")
	ErrEmptyEmail             = fmt.Errorf("email field is required")
)

// https://github.com/firebase/firebase-admin-go/blob/cef91acd46f2fc5d0b3408d8154a0005db5bdb0b/auth/user_mgt.go#L449-L457
func ValidatePhoneNumber(phoneNumberStr string) error {
	if phoneNumberStr == "" {
		return ErrEmptyPhoneNumber
	}

	if !rxPhone.MatchString(phoneNumberStr) {
		return ErrInvalidE164PhoneNumber
	}

	parsedNumber, err := phonenumbers.Parse(phoneNumberStr, "")
	if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
		return ErrInvalidE164PhoneNumber
	}

	return nil
}

func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("the provided amount is not a valid number")
	}

	if value <= 0 {
		return fmt.Errorf("the provided amount must be greater than zero")
	}

	return nil
}

// rxEmail validates e-mail addresses, according with the reference https://www.alexedwards.net/blog/validation-snippets-for-go#email-validation.
// It's free to use under the [MIT Licence](https://opensource.org/licenses/MIT).
var rxEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}

	if !rxEmail.MatchString(email) {
		return fmt.Errorf("the email address provided is not valid")
	}

	return nil
}

// ValidateStringLength will validate the given string to ensure it is not empty and does not exceed the maximum length.
func ValidateStringLength(field, fieldName string, maxLength int) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("%s field is required", fieldName)
	}

	if len(field) > maxLength {
		return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLength)
	}

	return nil
}

// ValidateURLScheme checks if a URL is valid and if it has a valid scheme.
func ValidateURLScheme(link string, scheme ...string) error {
	if !govalidator.IsURL(link) {
		return errors.New("invalid URL format")
	}

	parsedURL, err := url.ParseRequestURI(link)
	if err != nil {
		return errors.New("invalid URL format")
	}

	if len(scheme) > 0 {
		if !slices.Contains(scheme, parsedURL.Scheme) {
			return fmt.Errorf("invalid URL scheme is not part of %v", scheme)
		}
	}

	return nil
}
