// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the required role
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the referenced submission does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidScore is returned for a score outside [0,100]
	ErrInvalidScore = errors.New("invalid score")
	// ErrExpired is returned when the validity window of a submission elapsed
	ErrExpired = errors.New("expired")
	// ErrInsufficientStake is returned when the intake gate rejects a
	// submission: stake below minimum, capacity reached or emergency mode
	ErrInsufficientStake = errors.New("insufficient stake")
	// ErrTransferFailed is returned when stake could not be moved to custody
	ErrTransferFailed = errors.New("transfer failed")
	// ErrAlreadyFinalized is returned when evaluating a terminal submission
	ErrAlreadyFinalized = errors.New("already finalized")
	// ErrInvalidProposal is returned for a malformed title, category or creator
	ErrInvalidProposal = errors.New("invalid proposal")
	// ErrInvalidExpertise is returned for too many or malformed expertise tags
	ErrInvalidExpertise = errors.New("invalid expertise")
	// ErrInvalidIdentity is returned for an empty identity
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrHeightOverflow is returned when advancing the height would pass
	// MaxHeight
	ErrHeightOverflow = errors.New("height overflow")
)
