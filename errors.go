// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdquad

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned by Index.Nearest when none of the ids in
// the leaf reached by the query resolve to a record in the store.
var ErrNoCandidates = textErr("no candidate records")

const packageName = "kdquad: "

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

func isNoCandidates(err error) bool {
	return errors.Is(err, ErrNoCandidates)
}
