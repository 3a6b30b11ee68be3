// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package validation

import (
	"errors"
	"fmt"
)

// Collector accumulates validation problems so a bad configuration
// reports everything wrong in one pass instead of failing at the
// first field.
type Collector struct {
	scope string
	errs  []error
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// In sets a scope prefix prepended to every subsequent problem, e.g.
// `preset "Storm"`. Returns the collector for chaining.
func (c *Collector) In(format string, args ...interface{}) *Collector {
	c.scope = fmt.Sprintf(format, args...)
	return c
}

// Check records err if it is non-nil.
func (c *Collector) Check(err error) {
	if err == nil {
		return
	}
	if c.scope != "" {
		err = fmt.Errorf("%s: %w", c.scope, err)
	}
	c.errs = append(c.errs, err)
}

// Checkf records err wrapped with extra context. The context sits
// between the scope and the original error.
func (c *Collector) Checkf(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}
	c.Check(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
}

// Errorf records a new problem directly.
func (c *Collector) Errorf(format string, args ...interface{}) {
	c.Check(fmt.Errorf(format, args...))
}

// Err joins everything collected, or returns nil when the input was
// clean.
func (c *Collector) Err() error {
	return errors.Join(c.errs...)
}
