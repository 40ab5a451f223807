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
	"errors"
	"strings"
	"sync"
)

// JDK describes the Java development kit that JDK-dependent projects
// compile against.  Discovery is the embedding tool's business; this
// package only consumes the result.
type JDK struct {
	// Home is the JDK installation directory.
	Home string
	// IncludeDirs are the directories holding the JNI headers.
	IncludeDirs []string
	// Version is the Java language compliance level, e.g. "21".
	Version string
}

// jdkVersionToken in a compiler flag is replaced with the resolved JDK
// version, supporting conditional compilation against the JDK level.
const jdkVersionToken = "<jdk_ver>"

var jdkState struct {
	sync.Mutex
	resolve func() (JDK, error)
	done    bool
	jdk     JDK
	err     error
}

// SetJDKResolver installs the function used to locate the JDK.  The
// resolver runs at most once, the first time a JDK-dependent project
// generates its manifest.
func SetJDKResolver(resolve func() (JDK, error)) {
	jdkState.Lock()
	defer jdkState.Unlock()
	jdkState.resolve = resolve
	jdkState.done = false
}

func resolveJDK() (JDK, error) {
	jdkState.Lock()
	defer jdkState.Unlock()

	if !jdkState.done {
		if jdkState.resolve == nil {
			return JDK{}, errors.New("no JDK resolver configured")
		}
		jdkState.jdk, jdkState.err = jdkState.resolve()
		jdkState.done = true
	}
	return jdkState.jdk, jdkState.err
}

// substituteJDKVersion expands the version token in a list of flags.
// The input slice is never modified.
func substituteJDKVersion(flags []string, version string) []string {
	if version == "" {
		return flags
	}
	out := make([]string, len(flags))
	for i, flag := range flags {
		out[i] = strings.ReplaceAll(flag, jdkVersionToken, version)
	}
	return out
}

// containsJDKVersionToken reports whether any flag uses the version token.
func containsJDKVersionToken(flags []string) bool {
	for _, flag := range flags {
		if strings.Contains(flag, jdkVersionToken) {
			return true
		}
	}
	return false
}

// jdkHeaders contributes the JDK include directories to a project that
// declared it uses JDK headers.
type jdkHeaders struct {
	jdk JDK
}

func (d jdkHeaders) Name() string {
	return "JAVA_HOME=" + d.jdk.Home
}

func (d jdkHeaders) IncludeDirs() []string {
	return d.jdk.IncludeDirs
}
