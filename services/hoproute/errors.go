// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hoproute

import "errors"

// Sentinel errors for the HopRoute service.
var (
	// ErrSessionNotFound indicates no session exists with the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session idled past its TTL and was removed.
	ErrSessionExpired = errors.New("session expired")

	// ErrTooManySessions indicates the session cap is reached and nothing
	// can be evicted.
	ErrTooManySessions = errors.New("too many sessions")

	// ErrDefaultSessionPinned indicates an attempt to delete the default session.
	ErrDefaultSessionPinned = errors.New("default session cannot be deleted")

	// ErrNodeNotFound indicates a read of a node that is not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrPositionNotSet indicates the node exists but has no position.
	ErrPositionNotSet = errors.New("position not set")

	// ErrNilDocument indicates a topology load without a document.
	ErrNilDocument = errors.New("topology document is nil")
)
