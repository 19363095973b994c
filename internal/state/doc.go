// Package state persists the failover state document in object storage.
//
// The document records the last run of an instance: its task state, run ID,
// addresses and the operation set it applied. Recorder wraps a failover run
// and refuses to start while another run of the same document is in progress
// and has updated it recently.
package state
