// Copyright 2024 The qpmodel Authors
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

package engine

import (
	"io"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// OptimizeOptions is the enumerated optimizer flag set of spec §6.
// UseMemo switches Engine.Query between the direct plan.Lower path
// and the Cascades-style memo.Optimize search, and
// MemoDisableCrossJoin narrows the memo's rule set. Engine reads no
// other flag here; the rest are accepted and YAML round-tripped only.
type OptimizeOptions struct {
	EnableSubqueryToMarkjoin bool `yaml:"enable_subquery_to_markjoin"`
	RemoveFrom               bool `yaml:"remove_from"`
	EnableHashJoin           bool `yaml:"enable_hashjoin"`
	EnableNLJoin             bool `yaml:"enable_nljoin"`
	EnableIndexSeek          bool `yaml:"enable_indexseek"`
	UseMemo                  bool `yaml:"use_memo"`
	MemoDisableCrossJoin     bool `yaml:"memo_disable_crossjoin"`
	// UseCodegen is accepted for config/EXPLAIN round-tripping only:
	// compilation to machine code is out of scope (spec §4 Non-goals),
	// so Engine never reads this field.
	UseCodegen bool `yaml:"use_codegen"`
}

// ExplainOptions controls EXPLAIN's rendered tree (spec §6).
type ExplainOptions struct {
	ShowTableName bool `yaml:"show_tablename"`
	ShowCost      bool `yaml:"show_cost"`
	ShowOutput    bool `yaml:"show_output"`
}

// Options is the full query-option document of spec §6, loadable from
// YAML so a driver program can check in a qpmodel.yaml of defaults
// rather than wiring every flag by hand at call sites.
type Options struct {
	Profile struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"profile"`
	Optimize OptimizeOptions `yaml:"optimize"`
	Explain  ExplainOptions  `yaml:"explain"`
}

// DefaultOptions mirrors the pipeline's historical default (§4.H):
// direct lowering, both join algorithms available to it, no
// profiling, a plain unannotated EXPLAIN tree.
func DefaultOptions() Options {
	var o Options
	o.Optimize.EnableHashJoin = true
	o.Optimize.EnableNLJoin = true
	return o
}

// LoadOptions reads a YAML options document, starting from
// DefaultOptions so a partial document only overrides what it names.
func LoadOptions(r io.Reader) (Options, error) {
	o := DefaultOptions()
	body, err := ioutil.ReadAll(r)
	if err != nil {
		return Options{}, err
	}
	if err := yaml.Unmarshal(body, &o); err != nil {
		return Options{}, err
	}
	return o, nil
}
