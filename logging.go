// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

import "github.com/jbienstadt/exelib/log"

// logHelper is the logging handle threaded through every parser function.
// It is a plain alias for log.Helper so parser code in this package can
// refer to it unqualified, the way file.go threads its own helper through
// the teacher's parse methods.
type logHelper = log.Helper

// newNopLogger returns a logHelper that discards everything, used when
// Open/OpenBytes is called without an explicit logger.
func newNopLogger() *logHelper {
	return log.NewHelper(log.NewFilter(log.NewStdLogger(nopWriter{}), log.FilterLevel(log.LevelFatal+1)))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
