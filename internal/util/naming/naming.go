package naming

import (
	"fmt"
	"strings"
)

// Naming functions for resources created or referenced by hafloat.

var addressReplacer = strings.NewReplacer(".", "-", ":", "-")

func IPConfiguration(address string) string {
	return "failover-" + addressReplacer.Replace(strings.TrimSpace(address))
}

func StateKey(instanceID string) string {
	return fmt.Sprintf("%s/state.json", instanceID)
}

func OperationID(resourceID, action string) string {
	return fmt.Sprintf("%s#%s", resourceID, action)
}
