// Copyright 2024 The Foundry Authors. All rights reserved.
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

package foundry

import (
	"runtime"
	"sync"
)

// Toolchain describes the compiler suite for one target architecture.
type Toolchain struct {
	// Arch is the architecture the toolchain produces code for, in
	// runtime.GOARCH notation.
	Arch string

	host string
}

// Target returns the platform-qualified architecture name, used as the
// per-architecture directory under a project's output root.
func (t *Toolchain) Target() string {
	return runtime.GOOS + "-" + t.Arch
}

// IsNative reports whether the toolchain targets the host architecture.
func (t *Toolchain) IsNative() bool {
	return t.Arch == t.host
}

// IsAvailable reports whether the toolchain can be used on this host.
// Only native toolchains are available; cross toolchains would need a
// sysroot and a foreign compiler this layer does not manage.
func (t *Toolchain) IsAvailable() bool {
	return t.IsNative()
}

var toolchains struct {
	sync.Mutex
	byArch map[string]*Toolchain
}

// ToolchainFor returns the toolchain descriptor for the given architecture.
// Descriptors are shared process-wide; asking for the same architecture
// twice returns the same value.
func ToolchainFor(arch string) *Toolchain {
	return toolchainFor(arch, runtime.GOARCH)
}

func toolchainFor(arch, host string) *Toolchain {
	toolchains.Lock()
	defer toolchains.Unlock()

	if toolchains.byArch == nil {
		toolchains.byArch = make(map[string]*Toolchain)
	}
	tc, ok := toolchains.byArch[arch]
	if !ok {
		tc = &Toolchain{Arch: arch, host: host}
		toolchains.byArch[arch] = tc
	}
	return tc
}
