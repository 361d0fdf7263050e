// Package source owns the per-content-type registry of upstream sources.
// It tracks health counters, auto-disables failing sources, and persists the
// user-controlled enabled flag through a repository.SourceStatusRepository.
package source

import "errors"

// AllSources selects every source of a content type in Enable, Disable and Reset.
const AllSources = "all"

// Sentinel errors for source manager operations.
var (
	// ErrSourceNotFound indicates that no source with the given URL is
	// registered for the content type.
	ErrSourceNotFound = errors.New("source not found")

	// ErrStatusNotPersisted indicates that a state change was applied in
	// memory but could not be saved. It is the only error an admin
	// operation returns alongside a non-zero count.
	ErrStatusNotPersisted = errors.New("source status not persisted")
)
