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

package sql

import (
	"context"

	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// Context threads a correlation id, a logger and (during execution) a
// map of per-TableRef parameter rows through every phase of the
// pipeline. It intentionally carries no deadline or cancellation: the
// execution model is single-threaded and cooperative (see §5 of the
// spec this module implements), so context.Context is used only for
// its standard-library ancestry, never as a cancellation signal.
type Context struct {
	context.Context

	id     uuid.UUID
	log    *logrus.Entry
	params map[interface{}]Row
}

// NewContext returns a fresh Context stamped with a new correlation
// id, logging at the given level.
func NewContext(parent context.Context, log *logrus.Logger) *Context {
	if parent == nil {
		parent = context.Background()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	id := uuid.NewV4()
	return &Context{
		Context: parent,
		id:      id,
		log:     log.WithField("query_id", id.String()),
		params:  make(map[interface{}]Row),
	}
}

// NewEmptyContext returns a Context suitable for tests: background
// parent, standard logger.
func NewEmptyContext() *Context {
	return NewContext(context.Background(), logrus.StandardLogger())
}

// ID returns the context's correlation id.
func (c *Context) ID() string { return c.id.String() }

// Logger returns the structured logger for this execution.
func (c *Context) Logger() *logrus.Entry { return c.log }

// PublishParam records the current driving row for a correlated
// outer reference. key is typically the *plan.TableRef pointer that
// owns the outer-referenced columns. Ordering guarantee: a later
// publish on the same key overwrites the row an outer-ref column
// observes next, matching the "most recent enclosing publish" rule.
func (c *Context) PublishParam(key interface{}, row Row) {
	c.params[key] = row
}

// GetParam returns the row last published under key, or nil if none
// has been published yet (e.g. evaluating a correlated subquery's
// shape before any outer row has driven it).
func (c *Context) GetParam(key interface{}) Row {
	return c.params[key]
}
