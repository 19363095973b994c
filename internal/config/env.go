package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overrides configuration from environment variables. Unset or
// unparsable values leave the configuration unchanged.
//
// Environment Variables:
//   - HAFLOAT_RETRY_MAX_ATTEMPTS (retry.maxRetries + 1)
//   - HAFLOAT_RETRY_INTERVAL
//   - HAFLOAT_CONFIRM_MAX_ATTEMPTS (confirm.maxRetries + 1)
//   - HAFLOAT_CONFIRM_INTERVAL
//   - HAFLOAT_STATE_ACCESS_KEY, HAFLOAT_STATE_SECRET_KEY
//   - AWS_REGION (aws.region when unset)
//   - AZURE_SUBSCRIPTION_ID (azure.subscriptions when unset)
func ApplyEnv(c *Config) {
	if n := parseInt("HAFLOAT_RETRY_MAX_ATTEMPTS", 0); n > 0 {
		c.Retry.MaxRetries = n - 1
	}
	c.Retry.Interval = parseDuration("HAFLOAT_RETRY_INTERVAL", c.Retry.Interval)
	if n := parseInt("HAFLOAT_CONFIRM_MAX_ATTEMPTS", 0); n > 0 {
		c.Confirm.MaxRetries = n - 1
	}
	c.Confirm.Interval = parseDuration("HAFLOAT_CONFIRM_INTERVAL", c.Confirm.Interval)

	c.State.AccessKey = os.Getenv("HAFLOAT_STATE_ACCESS_KEY")
	c.State.SecretKey = os.Getenv("HAFLOAT_STATE_SECRET_KEY")

	if c.AWS.Region == "" {
		c.AWS.Region = os.Getenv("AWS_REGION")
	}
	if len(c.Azure.Subscriptions) == 0 {
		if sub := strings.TrimSpace(os.Getenv("AZURE_SUBSCRIPTION_ID")); sub != "" {
			c.Azure.Subscriptions = []string{sub}
		}
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
