// Package labels provides label selector helpers for cloud resources.
//
// Tag requirements are carried as plain maps throughout hafloat; providers
// that filter server side (Hetzner Cloud label selectors) render them with
// Selector, and the CLI parses --tags flags with ParseSelector.
package labels
