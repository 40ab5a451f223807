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
	"io"

	"github.com/caarlos0/env/v11"
)

// Config holds the build options shared by all tasks of one invocation.
// The zero value is usable; an embedding tool may populate it directly or
// parse it from the environment with ConfigFromEnv.
type Config struct {
	// Multiarch enables fan-out across a project's declared architectures.
	// When disabled, only the host architecture is built.
	Multiarch bool `env:"FOUNDRY_MULTIARCH"`
	// Jobs is the number of concurrent actions ninja may run within one
	// task.  It defaults to 1; parallelism across independent projects is
	// the primary concurrency lever, and debug builds in particular do not
	// always tolerate concurrent writers.
	Jobs int `env:"FOUNDRY_BUILD_JOBS" envDefault:"1"`
	// ArchParallel bounds how many architectures of one multiarch project
	// build concurrently.  It defaults to 1, preserving declaration order.
	ArchParallel int `env:"FOUNDRY_ARCH_PARALLEL" envDefault:"1"`
	// Verbose streams executor output live in addition to capturing it.
	Verbose bool `env:"FOUNDRY_VERBOSE"`
	// VeryVerbose additionally makes the executor print full commands, and
	// implies Verbose.
	VeryVerbose bool `env:"FOUNDRY_VERY_VERBOSE"`
	// Force rebuilds tasks regardless of staleness.
	Force bool `env:"FOUNDRY_FORCE"`
	// NinjaBinary overrides the executor binary, for hosts where ninja is
	// not on PATH.
	NinjaBinary string `env:"FOUNDRY_NINJA" envDefault:"ninja"`

	// CompDBSink, when set, receives a writer per task into which the
	// compile-command database is exported.  Export failures are logged
	// and never fail the build.
	CompDBSink func(task string) (io.WriteCloser, error) `env:"-"`
}

// ConfigFromEnv parses the configuration from environment variables in the
// form key=value, as returned by os.Environ.
func ConfigFromEnv(environ []string) (*Config, error) {
	var cfg Config

	err := env.ParseWithOptions(&cfg, env.Options{
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// verbose reports whether executor output should be streamed live.
func (c *Config) verbose() bool {
	return c.Verbose || c.VeryVerbose
}
