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
	"os"
	"path/filepath"
	"runtime"
)

// ArchiveEntry maps a built file to its path within a distribution
// archive.
type ArchiveEntry struct {
	SourcePath  string
	ArchivePath string
}

// ArchivableResults returns the files to distribute: the deliverable of
// every built architecture and, unless single is set, the public headers.
// Multiarch results are nested under per-architecture directories.  With
// useRelPath unset, headers are archived flat.  Non-native architectures
// are skipped when single is set.
func (p *DefaultProject) ArchivableResults(cfg *Config, useRelPath, single bool) ([]ArchiveEntry, error) {
	archs := []string{runtime.GOARCH}
	if len(p.multiarch) > 0 && cfg.Multiarch {
		archs = p.multiarch
	}

	var entries []ArchiveEntry
	for _, arch := range archs {
		tc := ToolchainFor(arch)
		if single && !tc.IsNative() {
			continue
		}

		// Results are nested whenever multiple architectures are
		// declared, even if this build produced only the native one, so
		// that the archive layout does not depend on the build mode.
		prefix := ""
		if len(p.multiarch) > 0 {
			prefix = tc.Target()
		}

		entries = append(entries, ArchiveEntry{
			SourcePath:  filepath.Join(p.outputRoot, arch, p.Deliverable()),
			ArchivePath: filepath.Join(prefix, p.Deliverable()),
		})

		if single {
			continue
		}

		includeDir := filepath.Join(p.dir, includeDirName)
		names, err := p.fs.ReadDirNames(includeDir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, err
		}
		for _, name := range names {
			archivePath := name
			if useRelPath {
				archivePath = filepath.Join(includeDirName, name)
			}
			entries = append(entries, ArchiveEntry{
				SourcePath:  filepath.Join(includeDir, name),
				ArchivePath: filepath.Join(prefix, archivePath),
			})
		}
	}

	return entries, nil
}
