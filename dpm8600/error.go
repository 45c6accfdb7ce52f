// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"errors"
)

// error defined
var (
	ErrUseClosedPort = errors.New("use of closed port")
	ErrBadAddress    = errors.New("address code out of range [1, 99]")
)

// DPM-8600 protocol errors. All of them are recoverable at the polling
// cycle level; only a failed port open is fatal.
var (
	ErrTimeout      = errors.New("response timed out or lacked terminator")
	ErrMalformed    = errors.New("malformed response frame")
	ErrMismatch     = errors.New("response function code does not match request")
	ErrOperandRange = errors.New("operand out of representable range")
)
