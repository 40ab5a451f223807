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
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrybuild/foundry/pathtools"
)

func TestNewDefaultProjectValidatesKind(t *testing.T) {
	props := defaultProps(engineFs())
	props.Kind = DeliverableKind(42)
	_, err := NewDefaultProject(props)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliverable kind")
}

func TestNewDefaultProjectRequiresToolchain(t *testing.T) {
	props := defaultProps(engineFs())
	props.Toolchain = nil
	_, err := NewDefaultProject(props)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toolchain")
}

func TestNewDefaultProjectRequiresHostInMultiarch(t *testing.T) {
	props := defaultProps(engineFs())
	props.Multiarch = []string{"pdp11"}
	_, err := NewDefaultProject(props)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host architecture")

	props.Multiarch = []string{"pdp11", runtime.GOARCH}
	_, err = NewDefaultProject(props)
	require.NoError(t, err)
}

func TestNewDefaultProjectDedupesMultiarch(t *testing.T) {
	props := defaultProps(engineFs())
	props.Multiarch = []string{runtime.GOARCH, "pdp11", runtime.GOARCH}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)
	assert.Equal(t, []string{runtime.GOARCH, "pdp11"}, p.TargetArchs())
}

func TestNewDefaultProjectRejectsNestedInclude(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/work/proj/include/nested/api.h": nil,
		"/work/proj/src/main.c":           nil,
	})
	_, err := NewDefaultProject(defaultProps(fs))

	var layoutErr *InvalidLayoutError
	require.ErrorAs(t, err, &layoutErr)
	assert.Equal(t, "/work/proj/include", layoutErr.Dir)
}

func TestNewDefaultProjectToleratesMissingInclude(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/work/proj/src/main.c": nil,
	})
	props := defaultProps(fs)
	props.Kind = Executable
	_, err := NewDefaultProject(props)
	require.NoError(t, err)
}

func TestDeliverableNaming(t *testing.T) {
	tests := []struct {
		kind DeliverableKind
		os   string
		want string
	}{
		{StaticLib, "linux", "libengine.a"},
		{StaticLib, "darwin", "libengine.a"},
		{StaticLib, "windows", "engine.lib"},
		{SharedLib, "linux", "libengine.so"},
		{SharedLib, "darwin", "libengine.dylib"},
		{SharedLib, "windows", "engine.dll"},
		{Executable, "linux", "engine"},
		{Executable, "darwin", "engine"},
		{Executable, "windows", "engine.exe"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.os, func(t *testing.T) {
			props := defaultProps(engineFs())
			props.Kind = tt.kind
			props.OS = tt.os
			p, err := NewDefaultProject(props)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Deliverable())
		})
	}
}

func TestDeliverableNameDefaultsToLastNameSegment(t *testing.T) {
	props := defaultProps(engineFs())
	props.Name = "com.example.suite.renderer"
	p, err := NewDefaultProject(props)
	require.NoError(t, err)
	assert.Equal(t, "librenderer.a", p.Deliverable())
}

func TestDeliverableNameOverride(t *testing.T) {
	props := defaultProps(engineFs())
	props.DeliverableName = "enginecore"
	p, err := NewDefaultProject(props)
	require.NoError(t, err)
	assert.Equal(t, "libenginecore.a", p.Deliverable())
}

func TestDefaultProjectContributions(t *testing.T) {
	p, err := NewDefaultProject(defaultProps(engineFs()))
	require.NoError(t, err)

	assert.Equal(t, []string{"/work/proj/include"}, p.IncludeDirs())
	assert.Equal(t,
		[]string{filepath.Join("/work/out/engine", runtime.GOARCH, "libengine.a")},
		p.Libs())

	// Only static libraries are linkable by downstream projects.
	props := defaultProps(engineFs())
	props.Kind = SharedLib
	shared, err := NewDefaultProject(props)
	require.NoError(t, err)
	assert.Empty(t, shared.Libs())
}

func TestJDKDependent(t *testing.T) {
	p, err := NewDefaultProject(defaultProps(engineFs()))
	require.NoError(t, err)
	assert.False(t, p.JDKDependent())

	props := defaultProps(engineFs())
	props.UseJDKHeaders = true
	p, err = NewDefaultProject(props)
	require.NoError(t, err)
	assert.True(t, p.JDKDependent())

	props = defaultProps(engineFs())
	props.CFlags = []string{"-DJDK_VER=<jdk_ver>"}
	p, err = NewDefaultProject(props)
	require.NoError(t, err)
	assert.True(t, p.JDKDependent())
}

func TestScanSources(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/work/proj/include/api.h":     nil,
		"/work/proj/src/main.c":        nil,
		"/work/proj/src/util.h":        nil,
		"/work/proj/src/util/hash.cc":  nil,
		"/work/proj/src/boot.S":        nil,
		"/work/proj/src/.main.c.swp":   nil,
		"/work/proj/src/.cache/junk.o": nil,
	})
	p, err := NewDefaultProject(defaultProps(fs))
	require.NoError(t, err)

	src, err := p.sources()
	require.NoError(t, err)

	want := map[string][]string{
		".h":   {"include/api.h", "src/util.h"},
		".c":   {"src/main.c"},
		".cc":  {"src/util/hash.cc"},
		".S":   {"src/boot.S"},
		".swp": {"src/.main.c.swp"},
	}
	if diff := cmp.Diff(want, src.byExt); diff != "" {
		t.Errorf("source grouping mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"include", "src", "src/util"}, src.tree)
}

func TestBuildCFlags(t *testing.T) {
	props := defaultProps(engineFs())
	props.Kind = SharedLib
	props.VCRoot = "/work"
	props.CFlags = []string{"-O2"}
	props.Profile = &Profile{Name: "fast", CFlags: []string{"-ffast-math"}}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	want := []string{
		"-fPIC",
		"-ffast-math",
		"-fdebug-prefix-map=/work=work",
		"-fdebug-prefix-map=/opt/jdk=jdk",
		"-gno-record-gcc-switches",
		"-O2",
	}
	assert.Equal(t, want, p.buildCFlags("/opt/jdk"))
}

func TestBuildCFlagsWindows(t *testing.T) {
	props := defaultProps(engineFs())
	props.Kind = SharedLib
	props.OS = "windows"
	props.CFlags = []string{"-O2"}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	assert.Equal(t, []string{"-MD", "-O2"}, p.buildCFlags(""))
}

func TestBuildCFlagsQuotesSpaces(t *testing.T) {
	props := defaultProps(engineFs())
	props.VCRoot = "/my work/repo dir"
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	flags := p.buildCFlags("")
	assert.Contains(t, flags, `-fdebug-prefix-map="/my work/repo dir"="repo dir"`)
}

func TestBuildLDFlags(t *testing.T) {
	tests := []struct {
		os   string
		want []string
	}{
		{"linux", []string{"-shared", "-fPIC", "-Wl,--no-undefined"}},
		{"darwin", []string{"-dynamiclib", "-undefined", "dynamic_lookup", "-Wl,--no-undefined"}},
		{"windows", []string{"-dll", "-Wl,--no-undefined"}},
	}

	for _, tt := range tests {
		t.Run(tt.os, func(t *testing.T) {
			props := defaultProps(engineFs())
			props.Kind = SharedLib
			props.OS = tt.os
			props.LDFlags = []string{"-Wl,--no-undefined"}
			p, err := NewDefaultProject(props)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.buildLDFlags())
		})
	}
}

func TestBuildLDFlagsProfile(t *testing.T) {
	props := defaultProps(engineFs())
	props.Kind = Executable
	props.LDFlags = []string{"-Wl,-z,defs"}
	props.Profile = &Profile{Name: "fast", LDFlags: []string{"-flto"}}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	assert.Equal(t, []string{"-flto", "-Wl,-z,defs"}, p.buildLDFlags())
}
