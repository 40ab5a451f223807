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

package pathtools

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OsFs is a FileSystem that uses the local disk.
var OsFs FileSystem = osFs{}

// MockFs returns a FileSystem that contains the given files keyed by clean
// path. Directories are inferred from the file paths. It is intended for
// tests; enumeration order is always lexical.
func MockFs(files map[string][]byte) FileSystem {
	fs := &mockFs{
		files: make(map[string][]byte, len(files)),
		dirs:  make(map[string]bool),
	}

	for f, b := range files {
		fs.files[filepath.Clean(f)] = b
		dir := filepath.Dir(f)
		for dir != "." && dir != "/" {
			fs.dirs[dir] = true
			dir = filepath.Dir(dir)
		}
		fs.dirs[dir] = true
	}

	for f := range fs.files {
		fs.all = append(fs.all, f)
	}

	for d := range fs.dirs {
		fs.all = append(fs.all, d)
	}

	sort.Strings(fs.all)

	return fs
}

type FileSystem interface {
	Open(name string) (io.ReadCloser, error)
	// Exists returns whether the file exists and whether it is a directory.
	Exists(name string) (bool, bool, error)
	IsDir(name string) (bool, error)
	Lstat(name string) (os.FileInfo, error)
	// ReadDirNames returns the sorted entry names of a directory.
	ReadDirNames(name string) ([]string, error)
	// ListDirsRecursive returns name and every directory below it in lexical
	// order, skipping dot-directories.
	ListDirsRecursive(name string) (dirs []string, err error)
}

// osFs implements FileSystem using the local disk.
type osFs struct{}

func (osFs) Open(name string) (io.ReadCloser, error) { return os.Open(name) }

func (osFs) Exists(name string) (bool, bool, error) {
	stat, err := os.Stat(name)
	if err == nil {
		return true, stat.IsDir(), nil
	} else if os.IsNotExist(err) {
		return false, false, nil
	} else {
		return false, false, err
	}
}

func (osFs) IsDir(name string) (bool, error) {
	info, err := os.Stat(name)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (osFs) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

func (osFs) ReadDirNames(name string) ([]string, error) {
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	return names, nil
}

func (osFs) ListDirsRecursive(name string) (dirs []string, err error) {
	err = filepath.WalkDir(name, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if n := d.Name(); n[0] == '.' && n != "." {
				return filepath.SkipDir
			}

			dirs = append(dirs, path)
		}
		return nil
	})

	return dirs, err
}

type mockFs struct {
	files map[string][]byte
	dirs  map[string]bool
	all   []string
}

func (m *mockFs) Open(name string) (io.ReadCloser, error) {
	if f, ok := m.files[filepath.Clean(name)]; ok {
		return io.NopCloser(bytes.NewReader(f)), nil
	}

	return nil, &os.PathError{
		Op:   "open",
		Path: name,
		Err:  os.ErrNotExist,
	}
}

func (m *mockFs) Exists(name string) (bool, bool, error) {
	name = filepath.Clean(name)
	if _, ok := m.files[name]; ok {
		return true, false, nil
	}
	if _, ok := m.dirs[name]; ok {
		return true, true, nil
	}
	return false, false, nil
}

func (m *mockFs) IsDir(name string) (bool, error) {
	return m.dirs[filepath.Clean(name)], nil
}

func (m *mockFs) Lstat(path string) (os.FileInfo, error) {
	return nil, errors.New("Lstat is not implemented in MockFs")
}

func (m *mockFs) ReadDirNames(name string) ([]string, error) {
	name = filepath.Clean(name)
	if !m.dirs[name] {
		return nil, &os.PathError{
			Op:   "open",
			Path: name,
			Err:  os.ErrNotExist,
		}
	}

	prefix := name + "/"
	if name == "." {
		prefix = ""
	}

	var names []string
	for _, f := range m.all {
		if strings.HasPrefix(f, prefix) && f != name {
			rest := strings.TrimPrefix(f, prefix)
			if !strings.ContainsRune(rest, filepath.Separator) {
				names = append(names, rest)
			}
		}
	}
	return names, nil
}

func (m *mockFs) ListDirsRecursive(name string) (dirs []string, err error) {
	name = filepath.Clean(name)
	dirs = append(dirs, name)
	prefix := name
	if prefix == "." {
		prefix = ""
	} else if prefix != "/" {
		prefix = prefix + "/"
	}
	for _, f := range m.all {
		if _, isDir := m.dirs[f]; isDir && filepath.Base(f)[0] != '.' && f != name {
			if strings.HasPrefix(f, prefix) &&
				strings.HasPrefix(f, "/") == strings.HasPrefix(prefix, "/") {
				dirs = append(dirs, f)
			}
		}
	}

	return dirs, nil
}
