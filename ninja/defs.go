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

package ninja

import (
	"errors"
	"fmt"
	"sort"
)

// A Deps value indicates the dependency file format that ninja should expect
// to be output by a compiler.
type Deps int

const (
	DepsNone Deps = iota
	DepsGCC
	DepsMSVC
)

func (d Deps) String() string {
	switch d {
	case DepsNone:
		return "none"
	case DepsGCC:
		return "gcc"
	case DepsMSVC:
		return "msvc"
	default:
		panic(fmt.Sprintf("unknown deps value: %d", d))
	}
}

// A RuleParams object contains the set of parameters that make up a ninja
// rule definition.  Each field corresponds to a ninja variable of the same
// name.
type RuleParams struct {
	Command     string // The command that ninja will run for the rule.
	Depfile     string // The dependency file name.
	Deps        Deps   // The format of the dependency file.
	Description string // The description that ninja will print for the rule.
	Generator   bool   // Whether the rule generates the manifest file itself.
	Restat      bool   // Whether ninja should re-stat the rule's outputs.

	Comment string // The comment that will appear above the definition.
}

// A BuildParams object contains the set of parameters that make up a ninja
// build statement.  Each field except for Args corresponds with a part of
// the build statement.  The Args field contains variable names and values
// that are set within the build statement's scope.
type BuildParams struct {
	Comment   string            // The comment that will appear above the definition.
	Rule      string            // The name of the rule to invoke.
	Outputs   []string          // The list of output targets.
	Inputs    []string          // The list of explicit input dependencies.
	Implicits []string          // The list of implicit input dependencies.
	OrderOnly []string          // The list of order-only dependencies.
	Args      map[string]string // The variable/value pairs to set.
}

// WriteRule writes a rule definition named name to w.  Paths and values in
// params are written as given.
func WriteRule(w *Writer, name string, params RuleParams) error {
	if params.Command == "" {
		return fmt.Errorf("rule %q has no command", name)
	}

	if params.Comment != "" {
		if err := w.Comment(params.Comment); err != nil {
			return err
		}
	}

	if err := w.Rule(name); err != nil {
		return err
	}

	variables := map[string]string{
		"command": params.Command,
	}
	if params.Depfile != "" {
		variables["depfile"] = params.Depfile
	}
	if params.Deps != DepsNone {
		variables["deps"] = params.Deps.String()
	}
	if params.Description != "" {
		variables["description"] = params.Description
	}
	if params.Generator {
		variables["generator"] = "true"
	}
	if params.Restat {
		variables["restat"] = "true"
	}

	return writeVariables(w, variables)
}

// WriteBuild writes a build statement to w.  Output and input paths are
// escaped; variable references in them are preserved.
func WriteBuild(w *Writer, params BuildParams) error {
	if params.Rule == "" {
		return errors.New("build statement has no rule")
	}
	if len(params.Outputs) == 0 {
		return errors.New("build statement has no outputs")
	}

	var (
		outputs   = escapeList(params.Outputs, EscapeOutputPath)
		inputs    = escapeList(params.Inputs, EscapeInputPath)
		implicits = escapeList(params.Implicits, EscapeInputPath)
		orderOnly = escapeList(params.OrderOnly, EscapeInputPath)
	)

	err := w.Build(params.Comment, params.Rule, outputs, nil, inputs, implicits, orderOnly)
	if err != nil {
		return err
	}

	return writeVariables(w, params.Args)
}

func escapeList(list []string, escape func(string) string) []string {
	result := make([]string, len(list))
	for i, s := range list {
		result[i] = escape(s)
	}
	return result
}

func writeVariables(w *Writer, variables map[string]string) error {
	var keys []string
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		if err := w.ScopedAssign(name, variables[name]); err != nil {
			return err
		}
	}
	return nil
}
