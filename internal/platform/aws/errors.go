package aws

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/imamik/hafloat/internal/failover"
)

// errorCode returns the EC2 API error code of err, if any.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsNotFound checks if an error indicates a missing EC2 resource.
func IsNotFound(err error) bool {
	return strings.HasSuffix(errorCode(err), ".NotFound")
}

// IsThrottled checks if an error indicates request throttling.
func IsThrottled(err error) bool {
	switch errorCode(err) {
	case "RequestLimitExceeded", "Throttling", "ThrottlingException":
		return true
	}
	return false
}

// isPermanent reports errors that no amount of retrying will fix.
func isPermanent(err error) bool {
	code := errorCode(err)
	switch code {
	case "UnauthorizedOperation", "AuthFailure", "InvalidParameterValue",
		"InvalidParameterCombination", "MissingParameter", "PrivateIpAddressLimitExceeded":
		return true
	}
	return strings.HasSuffix(code, ".NotFound") || strings.HasSuffix(code, ".Malformed")
}

// classify maps an EC2 error to the planner's error categories.
func classify(err error) error {
	if err != nil && isPermanent(err) {
		return failover.Configuration(Name, "%v", err)
	}
	return err
}
