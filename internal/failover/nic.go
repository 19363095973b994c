package failover

import (
	"github.com/go-logr/logr"
)

// DiscoveryMode selects how a local NIC is paired with a peer NIC.
type DiscoveryMode string

// Discovery modes.
const (
	// DiscoverByTag pairs NICs carrying the same non-empty value for a tag key.
	DiscoverByTag DiscoveryMode = "tag"
	// DiscoverBySubnet pairs NICs whose primary configurations share a subnet.
	DiscoverBySubnet DiscoveryMode = "subnet"
)

// PairingStrategy is the single pairing rule configured for a deployment.
type PairingStrategy struct {
	Mode   DiscoveryMode `json:"mode" yaml:"mode"`
	TagKey string        `json:"tagKey,omitempty" yaml:"tagKey,omitempty"`
}

// eligible reports whether mine and theirs may exchange addresses.
func (s PairingStrategy) eligible(log logr.Logger, mine, theirs NetworkInterface) bool {
	switch s.Mode {
	case DiscoverBySubnet:
		a, okA := mine.Primary()
		b, okB := theirs.Primary()
		if okA && okB && a.SubnetID != "" && a.SubnetID == b.SubnetID {
			return true
		}
		log.Info("subnet mismatch between interfaces, skipping pair",
			"anomaly", "subnet-mismatch", "mine", mine.Name, "theirs", theirs.Name,
			"mineSubnet", a.SubnetID, "theirSubnet", b.SubnetID)
		return false
	default:
		a := mine.Tags[s.TagKey]
		b := theirs.Tags[s.TagKey]
		if a != "" && a == b {
			return true
		}
		log.Info("tag mismatch between interfaces, skipping pair",
			"anomaly", "tag-mismatch", "mine", mine.Name, "theirs", theirs.Name,
			"tag", s.TagKey, "mineValue", a, "theirValue", b)
		return false
	}
}

// Classify splits NICs into those holding a local address (mine) and those
// holding a failover address (theirs). A NIC holding both is mine only.
// Provisioning state is reported but never filters.
func Classify(log logr.Logger, nics []NetworkInterface, local, failover []string) (mine, theirs []NetworkInterface) {
	localSet := newAddressSet(local)
	failoverSet := newAddressSet(failover)

	for _, nic := range nics {
		if nic.ProvisioningState != "" && nic.ProvisioningState != StateSucceeded {
			log.Info("interface is not in a settled provisioning state",
				"anomaly", "provisioning-state", "nic", nic.Name, "state", nic.ProvisioningState)
		}
		switch {
		case nic.holdsAny(localSet):
			mine = append(mine, nic)
		case nic.holdsAny(failoverSet):
			theirs = append(theirs, nic)
		}
	}
	return mine, theirs
}

// NicTransfer is the pair of NIC phases produced by PlanTransfer.
type NicTransfer struct {
	Disassociate []NicOperation
	Associate    []NicOperation
}

// PlanTransfer moves every failover configuration from each eligible peer
// NIC onto the local NIC it is paired with. Inputs are not modified; the
// operations carry updated copies. A NIC receiving addresses from several
// peers yields a single associate operation holding the final body.
// A peer's primary configuration is never moved, even when its address is
// listed in failover; it stays on the peer and is logged as an anomaly.
func PlanTransfer(log logr.Logger, mine, theirs []NetworkInterface, failover []string, strategy PairingStrategy) NicTransfer {
	transfer := NicTransfer{Disassociate: []NicOperation{}, Associate: []NicOperation{}}
	failoverSet := newAddressSet(failover)
	if len(failoverSet) == 0 || len(mine) == 0 || len(theirs) == 0 {
		return transfer
	}

	mineState := make([]NetworkInterface, len(mine))
	for i := range mine {
		mineState[i] = mine[i].Clone()
	}
	theirState := make([]NetworkInterface, len(theirs))
	for i := range theirs {
		theirState[i] = theirs[i].Clone()
	}

	var mineOrder, theirOrder []int
	mineSeen := map[int]bool{}
	theirSeen := map[int]bool{}

	for i := range mineState {
		for j := range theirState {
			if !strategy.eligible(log, mineState[i], theirState[j]) {
				continue
			}
			kept, moved := partitionConfigurations(log, theirState[j], failoverSet)
			if len(moved) == 0 {
				continue
			}
			theirState[j].IPConfigurations = kept
			mineState[i].IPConfigurations = append(mineState[i].IPConfigurations, moved...)

			log.V(1).Info("moving addresses between interfaces",
				"from", theirState[j].Name, "to", mineState[i].Name, "count", len(moved))

			if !theirSeen[j] {
				theirSeen[j] = true
				theirOrder = append(theirOrder, j)
			}
			if !mineSeen[i] {
				mineSeen[i] = true
				mineOrder = append(mineOrder, i)
			}
		}
	}

	for _, j := range theirOrder {
		transfer.Disassociate = append(transfer.Disassociate, newNicOperation(theirState[j], ActionDisassociate))
	}
	for _, i := range mineOrder {
		transfer.Associate = append(transfer.Associate, newNicOperation(mineState[i], ActionAssociate))
	}
	return transfer
}

// partitionConfigurations splits nic's configurations into those staying and
// those holding a failover address. Moved copies are never primary.
func partitionConfigurations(log logr.Logger, nic NetworkInterface, failoverSet addressSet) (kept, moved []IPConfiguration) {
	kept = make([]IPConfiguration, 0, len(nic.IPConfigurations))
	for _, c := range nic.IPConfigurations {
		if !failoverSet.has(c.PrivateAddress) {
			kept = append(kept, c)
			continue
		}
		if c.Primary {
			log.Info("failover address is the primary configuration of a peer interface, leaving it in place",
				"anomaly", "primary-failover-address", "nic", nic.Name, "address", c.PrivateAddress)
			kept = append(kept, c)
			continue
		}
		c.Primary = false
		moved = append(moved, c)
	}
	return kept, moved
}

func newNicOperation(nic NetworkInterface, action NicAction) NicOperation {
	return NicOperation{
		ScopeID: nic.ScopeID,
		NicName: nic.Name,
		NIC:     nic,
		Action:  action,
	}
}
