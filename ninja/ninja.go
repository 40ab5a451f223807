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

// Package ninja writes ninja build manifests and encapsulates access to the
// ninja binary: staleness dry runs, builds, cleans and compile-command
// database exports.
package ninja

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultManifest is the manifest file name ninja looks for in its build
// directory.
const DefaultManifest = "build.ninja"

const (
	defaultBinary = "ninja"
	explainPrefix = "ninja explain:"
	noWorkToDo    = "ninja: no work to do."
)

// A Runner invokes ninja in one build directory.  The zero value is not
// usable; BuildDir must be set.
type Runner struct {
	// BuildDir is the directory containing the manifest, and the working
	// directory of every invocation.
	BuildDir string
	// Binary overrides the ninja binary name, for hosts where it is not on
	// PATH.
	Binary string
	// Jobs is the number of concurrent actions ninja may run (-j).  It
	// defaults to 1 so that parallelism across independent tasks remains
	// the primary concurrency lever.
	Jobs int
	// Targets restricts operations to a subset of the manifest's targets.
	// Empty means the manifest default.
	Targets []string
	// Verbose streams invocation output live in addition to capturing it.
	Verbose bool
	// VeryVerbose additionally makes ninja print full commands (-v).
	VeryVerbose bool
	// Stdout and Stderr receive streamed output when Verbose is set.  They
	// default to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// runCmd runs a prepared command.  Tests replace it to avoid spawning
	// processes.
	runCmd func(cmd *exec.Cmd) error
}

// An ExitError reports a ninja invocation that exited non-zero.  Output
// holds the captured combined output, or is empty if the output was already
// streamed verbosely.
type ExitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ninja %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NeedsBuild asks ninja to explain, without building anything, whether any
// work is outstanding.  It returns the first explanation line as the reason
// when work is needed, and ninja's "no work to do" line otherwise.
func (r *Runner) NeedsBuild(ctx context.Context) (bool, string, error) {
	var stdout, stderr bytes.Buffer

	// Dry run output is noise; only the explanations are streamed verbosely.
	errW := io.Writer(&stderr)
	if r.Verbose {
		errW = io.MultiWriter(&stderr, r.errWriter())
	}

	captured := func() string {
		return strings.TrimSpace(stdout.String() + "\n" + stderr.String())
	}
	if err := r.run(ctx, r.args("-n", "-d", "explain"), &stdout, errW, captured); err != nil {
		return false, "", err
	}

	for _, line := range strings.Split(stderr.String(), "\n") {
		if strings.HasPrefix(line, explainPrefix) {
			return true, line, nil
		}
	}

	if out := strings.TrimSpace(stdout.String()); out == noWorkToDo {
		return false, noWorkToDo, nil
	}
	return false, "", fmt.Errorf("unexpected ninja dry run output: %q", strings.TrimSpace(stdout.String()))
}

// Build performs the real build.  A non-zero exit yields an *ExitError
// carrying the captured output.
func (r *Runner) Build(ctx context.Context) error {
	return r.runCaptured(ctx, r.args())
}

// Clean removes the outputs ninja previously produced.
func (r *Runner) Clean(ctx context.Context) error {
	return r.runCaptured(ctx, r.args("-t", "clean"))
}

// WriteCompileCommands writes the compile-command database for the
// configured targets to w.
func (r *Runner) WriteCompileCommands(ctx context.Context, w io.Writer) error {
	var stderr bytes.Buffer
	captured := stderr.String
	return r.run(ctx, r.args("-t", "compdb"), w, &stderr, captured)
}

// runCaptured runs ninja capturing combined output, streaming it live as
// well when Verbose is set.
func (r *Runner) runCaptured(ctx context.Context, args []string) error {
	var buf bytes.Buffer
	outW := io.Writer(&buf)
	errW := io.Writer(&buf)
	if r.Verbose {
		outW = io.MultiWriter(&buf, r.outWriter())
		errW = io.MultiWriter(&buf, r.errWriter())
	}

	captured := buf.String
	if r.Verbose {
		// Already streamed; do not duplicate it in the error.
		captured = nil
	}
	return r.run(ctx, args, outW, errW, captured)
}

func (r *Runner) args(op ...string) []string {
	jobs := r.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	args := []string{"-j", strconv.Itoa(jobs)}
	if r.VeryVerbose {
		args = append(args, "-v")
	}
	args = append(args, op...)
	return append(args, r.Targets...)
}

func (r *Runner) run(ctx context.Context, args []string, stdout, stderr io.Writer, captured func() string) error {
	binary := r.Binary
	if binary == "" {
		binary = defaultBinary
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = r.BuildDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runCmd := r.runCmd
	if runCmd == nil {
		runCmd = (*exec.Cmd).Run
	}

	if err := runCmd(cmd); err != nil {
		var output string
		if captured != nil {
			output = captured()
		}
		return &ExitError{Args: args, Output: output, Err: err}
	}
	return nil
}

func (r *Runner) outWriter() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) errWriter() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
