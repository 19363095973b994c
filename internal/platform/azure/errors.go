package azure

import (
	"errors"
	"net/http"
	"slices"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/imamik/hafloat/internal/failover"
)

// ARM error codes that are retried even though they come with a 4xx status.
var retryableCodes = []string{
	"AnotherOperationInProgress",
	"PrivateIPAddressInUse",
	"RetryableError",
	"ReferencedResourceNotProvisioned",
}

// ARM error codes meaning the write was a no-op.
var conditionNotMetCodes = []string{
	"ConditionNotMet",
	"PreconditionFailed",
}

// responseError extracts the ARM response error from err.
func responseError(err error) (*azcore.ResponseError, bool) {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr, true
	}
	return nil, false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	respErr, ok := responseError(err)
	return ok && respErr.StatusCode == http.StatusNotFound
}

// IsThrottled checks if an error indicates ARM throttling.
func IsThrottled(err error) bool {
	respErr, ok := responseError(err)
	return ok && respErr.StatusCode == http.StatusTooManyRequests
}

func isConditionNotMet(err error) bool {
	respErr, ok := responseError(err)
	if !ok {
		return false
	}
	return respErr.StatusCode == http.StatusPreconditionFailed || slices.Contains(conditionNotMetCodes, respErr.ErrorCode)
}

// isPermanent reports errors that no amount of retrying will fix.
func isPermanent(err error) bool {
	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return true
	}
	respErr, ok := responseError(err)
	if !ok {
		return false
	}
	if slices.Contains(retryableCodes, respErr.ErrorCode) {
		return false
	}
	switch respErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// classify maps an ARM error to the planner's error categories.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isConditionNotMet(err):
		return failover.AlreadyInState(err)
	case isPermanent(err):
		return failover.Configuration(Name, "%v", err)
	}
	return err
}
