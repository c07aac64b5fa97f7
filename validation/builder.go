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

// ErrorCollector gathers every failed check so a bad file is reported in one pass.
type ErrorCollector struct {
	errs []error
	ctx  string // prefix such as "laptop Blade 15" or "[power]"
}

// NewCollector creates an empty collector.
func NewCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// WithContext prefixes subsequent errors with ctx.
func (ec *ErrorCollector) WithContext(ctx string) *ErrorCollector {
	ec.ctx = ctx
	return ec
}

// Check records err unless it is nil.
func (ec *ErrorCollector) Check(err error) {
	if err == nil {
		return
	}
	if ec.ctx != "" {
		err = fmt.Errorf("%s: %w", ec.ctx, err)
	}
	ec.errs = append(ec.errs, err)
}

// Len is the number of recorded errors.
func (ec *ErrorCollector) Len() int {
	return len(ec.errs)
}

// Error joins the recorded errors, or returns nil.
func (ec *ErrorCollector) Error() error {
	return errors.Join(ec.errs...)
}
