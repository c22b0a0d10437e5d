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

package rowexec

import (
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bigwa/qpmodel/sql"
)

// operatorDuration records each operator's wall time across queries,
// keyed by the Profiling wrapper's Name; one observation per Exec
// call (§6's profiling option).
var operatorDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "qpmodel",
	Subsystem: "rowexec",
	Name:      "operator_seconds",
	Help:      "Wall time spent inside a physical operator's Exec call.",
}, []string{"operator"})

func init() {
	prometheus.MustRegister(operatorDuration)
}

// Profiling wraps a physical operator with an opentracing span and a
// prometheus observation (§4.G/§6). Each Exec call is one span (so the
// loop count is the number of spans), tagged with the number of rows
// that call passed on. It changes nothing about the rows
// it passes through; Options.Profile controls whether the lowering
// pass wraps operators in one of these at all.
type Profiling struct {
	base
	Child sql.PhysicalNode
	Name  string
}

func NewProfiling(child sql.PhysicalNode, name string) *Profiling {
	return &Profiling{base: base{logical: child.Logical(), cost: child.Cost()}, Child: child, Name: name}
}

func (p *Profiling) Children() []sql.PhysicalNode { return []sql.PhysicalNode{p.Child} }

func (p *Profiling) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Profiling takes exactly one child")
	}
	n := *p
	n.Child = children[0]
	return &n, nil
}

func (p *Profiling) String() string { return p.Child.String() }

func (p *Profiling) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	span, spanCtx := opentracing.StartSpanFromContext(ctx.Context, p.Name)
	defer span.Finish()

	inner := *ctx
	inner.Context = spanCtx
	var rows int64
	start := time.Now()
	err := p.Child.Exec(&inner, func(r sql.Row) error {
		rows++
		return cb(r)
	})
	operatorDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
	span.SetTag("rows", rows)
	if err != nil {
		span.SetTag("error", true)
	}
	return err
}
