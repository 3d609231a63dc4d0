package validator

import (
	"errors"
	"strconv"
)

var InvalidStatusCodeError = errors.New("status code must be a number from 100 to 599")

// ValidateStrStatusCode checks that status is a valid stringified HTTP status code.
func ValidateStrStatusCode(status string) error {
	if len(status) != 3 {
		return InvalidStatusCodeError
	}
	code, err := strconv.Atoi(status)
	if err != nil || code < 100 || code > 599 {
		return InvalidStatusCodeError
	}
	return nil
}
