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
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/foundrybuild/foundry/ninja"
)

// RunArgs carries the inputs of one task run.
type RunArgs struct {
	// NewestInput is the timestamp of the newest input contributed by the
	// embedding tool, typically the newest output of the project's
	// dependencies.  Zero means unknown; the executor then decides on its
	// own.
	NewestInput time.Time
	// Force requests a rebuild regardless of staleness.
	Force bool
}

// BuildResult is the outcome of one task run.
type BuildResult struct {
	// Built is whether any work was done.
	Built bool
	// NewestOutput is the modification time of the newest deliverable, or
	// zero if it does not exist.
	NewestOutput time.Time
}

// A Task builds one project.  Tasks are not safe for concurrent use.
type Task interface {
	Name() string
	// Run decides whether a build is needed, regenerates the manifest if
	// so, and builds.  An up-to-date task reports Built=false.
	Run(ctx context.Context, args RunArgs) (BuildResult, error)
	// Clean removes everything the task has built.
	Clean(ctx context.Context) error
}

// NewBuildTask composes the build task for a project: the host-architecture
// task, or one sub-task per declared architecture when multiarch builds are
// enabled.
func NewBuildTask(p Project, cfg *Config) Task {
	archs := p.TargetArchs()
	if len(archs) == 0 || !cfg.Multiarch {
		return newArchTask(p, cfg, runtime.GOARCH)
	}

	tasks := make([]Task, 0, len(archs))
	for _, arch := range archs {
		tasks = append(tasks, newArchTask(p, cfg, arch))
	}
	return &multiarchTask{
		name:     p.Name(),
		tasks:    tasks,
		parallel: cfg.ArchParallel,
	}
}

// executor is the subset of ninja.Runner the task needs.  Tests substitute
// it to run without processes.
type executor interface {
	NeedsBuild(ctx context.Context) (bool, string, error)
	Build(ctx context.Context) error
	Clean(ctx context.Context) error
	WriteCompileCommands(ctx context.Context, w io.Writer) error
}

// archTask builds one project for one target architecture in its own build
// directory.
type archTask struct {
	name      string
	project   Project
	cfg       *Config
	toolchain *Toolchain
	outDir    string
	manifest  string
	exec      executor
}

func newArchTask(p Project, cfg *Config, arch string) *archTask {
	outDir := filepath.Join(p.OutDir(), arch)
	return &archTask{
		name:      p.Name() + "_" + arch,
		project:   p,
		cfg:       cfg,
		toolchain: ToolchainFor(arch),
		outDir:    outDir,
		manifest:  filepath.Join(outDir, ninja.DefaultManifest),
		exec: &ninja.Runner{
			BuildDir:    outDir,
			Binary:      cfg.NinjaBinary,
			Jobs:        cfg.Jobs,
			Verbose:     cfg.verbose(),
			VeryVerbose: cfg.VeryVerbose,
		},
	}
}

func (t *archTask) Name() string {
	return t.name
}

func (t *archTask) Run(ctx context.Context, args RunArgs) (BuildResult, error) {
	if !t.toolchain.IsAvailable() {
		return BuildResult{}, &MissingToolchainError{
			Project: t.project.Name(),
			Arch:    t.toolchain.Arch,
		}
	}

	needed, reason, err := t.needsBuild(ctx, args)
	if err != nil {
		return BuildResult{}, err
	}
	if !needed {
		logger(ctx).Debug("task is up to date", "task", t.name)
		return BuildResult{NewestOutput: t.newestOutput()}, nil
	}

	logger(ctx).Info("building", "task", t.name, "reason", reason)
	if err := t.build(ctx); err != nil {
		return BuildResult{}, err
	}
	return BuildResult{Built: true, NewestOutput: t.newestOutput()}, nil
}

func (t *archTask) Clean(ctx context.Context) error {
	logger(ctx).Debug("removing build directory", "task", t.name, "dir", t.outDir)
	return os.RemoveAll(t.outDir)
}

// needsBuild works through the staleness checks from cheapest to most
// expensive; the first one that fires wins, and its reason is reported.
func (t *archTask) needsBuild(ctx context.Context, args RunArgs) (bool, string, error) {
	if args.Force {
		return true, "forced build", nil
	}

	if !args.NewestInput.IsZero() {
		output := t.newestOutput()
		if output.IsZero() || output.Before(args.NewestInput) {
			return true, "newer input", nil
		}
	}

	if _, err := os.Stat(t.manifest); errors.Is(err, os.ErrNotExist) {
		return true, "no build manifest", nil
	} else if err != nil {
		return false, "", err
	}

	logger(ctx).Debug("checking whether to build", "task", t.name)
	return t.exec.NeedsBuild(ctx)
}

func (t *archTask) build(ctx context.Context) error {
	if err := t.regenerateManifest(ctx); err != nil {
		return err
	}

	t.exportCompileCommands(ctx)

	if err := t.exec.Build(ctx); err != nil {
		return newBuildError(t.name, err)
	}
	return nil
}

// regenerateManifest renders the manifest and swaps it in atomically.  When
// the content changed, the outputs of the old build graph are cleaned first,
// while the old manifest still describes them.
func (t *archTask) regenerateManifest(ctx context.Context) error {
	content, err := t.project.GenerateManifest(t.outDir)
	if err != nil {
		return err
	}

	previous, err := hashManifest(t.manifest)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err == nil && previous != blake3.Sum256(content) {
		logger(ctx).Debug("manifest changed, cleaning stale outputs", "task", t.name)
		if err := t.exec.Clean(ctx); err != nil {
			return err
		}
	}

	return t.writeManifest(content)
}

func hashManifest(path string) ([32]byte, error) {
	var sum [32]byte

	f, err := os.Open(path)
	if err != nil {
		return sum, err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

func (t *archTask) writeManifest(content []byte) error {
	if err := os.MkdirAll(t.outDir, 0777); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(t.outDir, ninja.DefaultManifest+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	_, err = tmp.Write(content)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		// CreateTemp files are readable only by the owner.
		err = os.Chmod(name, 0644)
	}
	if err == nil {
		err = os.Rename(name, t.manifest)
	}
	if err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// exportCompileCommands feeds the compile-command database to the
// configured sink.  Export failures never fail the build.
func (t *archTask) exportCompileCommands(ctx context.Context) {
	if t.cfg.CompDBSink == nil {
		return
	}

	sink, err := t.cfg.CompDBSink(t.name)
	if err == nil && sink == nil {
		return
	}
	if err == nil {
		err = t.exec.WriteCompileCommands(ctx, sink)
		if closeErr := sink.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		logger(ctx).Warn("compile command export failed", "task", t.name, "error", err)
	}
}

func (t *archTask) newestOutput() time.Time {
	info, err := os.Stat(filepath.Join(t.outDir, t.project.Deliverable()))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func newBuildError(task string, err error) error {
	var exit *ninja.ExitError
	if errors.As(err, &exit) {
		return &BuildError{Task: task, Output: exit.Output, Err: err}
	}
	return &BuildError{Task: task, Err: err}
}

// multiarchTask fans a run out to per-architecture sub-tasks and merges
// their results: built if any sub-task built, newest output across all of
// them.
type multiarchTask struct {
	name     string
	tasks    []Task
	parallel int
}

func (t *multiarchTask) Name() string {
	return t.name
}

func (t *multiarchTask) Run(ctx context.Context, args RunArgs) (BuildResult, error) {
	results := make([]BuildResult, len(t.tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(t.parallel, 1))
	for i, sub := range t.tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := sub.Run(ctx, args)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildResult{}, err
	}

	var merged BuildResult
	for _, result := range results {
		merged.Built = merged.Built || result.Built
		if result.NewestOutput.After(merged.NewestOutput) {
			merged.NewestOutput = result.NewestOutput
		}
	}
	return merged, nil
}

func (t *multiarchTask) Clean(ctx context.Context) error {
	var errs []error
	for _, sub := range t.tasks {
		errs = append(errs, sub.Clean(ctx))
	}
	return errors.Join(errs...)
}
