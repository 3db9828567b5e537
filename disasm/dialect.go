// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package disasm

import (
	"fmt"
	"strings"
)

// Dialect selects which textual assembly/IR syntax a listing is written in.
type Dialect int

const (
	Intel Dialect = iota
	ARM
	Wasm
	LLVMIR
)

func (d Dialect) String() string {
	switch d {
	case Intel:
		return "intel"
	case ARM:
		return "arm"
	case Wasm:
		return "wasm"
	case LLVMIR:
		return "llvmir"
	default:
		return "unknown"
	}
}

// ParseDialect resolves a user-facing name to a Dialect. It accepts the
// canonical name plus a couple of common aliases, case-insensitively.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "intel", "x86", "x86-64", "amd64":
		return Intel, nil
	case "arm", "aarch64", "arm64":
		return ARM, nil
	case "wasm", "wat", "webassembly":
		return Wasm, nil
	case "llvmir", "llvm", "ir":
		return LLVMIR, nil
	default:
		return 0, fmt.Errorf("unsupported dialect: %s (available: intel, arm, wasm, llvmir)", s)
	}
}

// classifierFor returns the process-wide classifier singleton for a dialect.
func classifierFor(d Dialect) DialectClassifier {
	switch d {
	case Intel:
		return intelClassifier
	case ARM:
		return armClassifier
	case Wasm:
		return wasmClassifier
	case LLVMIR:
		return llvmirClassifier
	default:
		return intelClassifier
	}
}
