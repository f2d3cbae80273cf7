// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fault is the closed set of failure kinds the lucky box core reports.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	// Permission means location access was denied or is undetermined. The user can fix it.
	Permission
	// ProviderUnavailable means a capability was used before it was initialized.
	ProviderUnavailable
	// Transient covers network and service failures that are worth retrying.
	Transient
	// Empty means there was nothing to return, e.g. no restaurants to pick from.
	Empty
	// Persistence covers durable storage failures. These never reach callers of the core.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Permission:
		return "permission"
	case ProviderUnavailable:
		return "provider unavailable"
	case Transient:
		return "transient"
	case Empty:
		return "empty"
	case Persistence:
		return "persistence"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "maps.address".
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
