// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordTooLong is returned when inserting a record with more
	// values than the schema has fields.
	ErrRecordTooLong = textErr("record has more values than schema fields")
	// ErrNotFound is returned when a record id is not in the store.
	ErrNotFound = textErr("record not found")
	// ErrUnknownField is returned when a field name or value index is
	// not part of the schema.
	ErrUnknownField = textErr("unknown field")
)

const packageName = "store: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...interface{}) error {
	return fmt.Errorf(packageName+format, a...)
}

func wrapErr(text string, err error, a ...interface{}) error {
	return fmt.Errorf(packageName+text+": %w", append(a, err)...)
}

func textPanic(text string) {
	panic(packageName + text)
}
