package hcloud

import (
	"errors"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hafloat/internal/failover"
)

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// isPermanent reports errors that no amount of retrying will fix.
func isPermanent(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeUnauthorized,
		hcloud.ErrorCodeForbidden,
		hcloud.ErrorCodeInvalidInput,
	)
}

// classify maps an API error from a plain read or update call. Anything not
// permanent, rate limiting and conflicts included, is left for the caller to
// retry.
func classify(err error) error {
	if isPermanent(err) {
		return failover.Configuration(Name, "%v", err)
	}
	return err
}

// classifyDelete treats a missing resource as already deleted.
func classifyDelete(err error) error {
	if IsNotFound(err) {
		return failover.AlreadyInState(err)
	}
	return classify(err)
}

// classifyCreate treats a duplicate as already created.
func classifyCreate(err error) error {
	if isHCloudErrorCode(err, hcloud.ErrorCodeUniquenessError) {
		return failover.AlreadyInState(err)
	}
	return classify(err)
}
