// Package nlog is the runtime's leveled logger: timestamping and
// severity filtering, written straight to Out without buffering or the
// teacher's disk-rotation machinery.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type severity int32

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevNames = [...]string{"I", "W", "E"}

// Level controls the minimum severity written to Out. Defaults to Info.
var Level int32 = int32(sevInfo)

// Out is the destination writer; tests may swap it out under mu.
var (
	Out io.Writer = os.Stderr
	mu  sync.Mutex
)

var (
	infoCount int64
	warnCount int64
	errCount  int64
)

func log(sev severity, depth int, format string, args ...any) {
	if int32(sev) < atomic.LoadInt32(&Level) {
		return
	}
	switch sev {
	case sevInfo:
		atomic.AddInt64(&infoCount, 1)
	case sevWarn:
		atomic.AddInt64(&warnCount, 1)
	case sevErr:
		atomic.AddInt64(&errCount, 1)
	}
	now := time.Now()
	_, file, line, ok := runtime.Caller(depth + 2)
	if !ok {
		file, line = "???", 0
	} else if i := lastSlash(file); i >= 0 {
		file = file[i+1:]
	}
	msg := format
	if format == "" {
		msg = fmt.Sprintln(args...)
	} else {
		msg = fmt.Sprintf(format, args...)
	}
	mu.Lock()
	fmt.Fprintf(Out, "%s%s %s:%d] %s\n", sevNames[sev], now.Format("0102 15:04:05.000000"), file, line, msg)
	mu.Unlock()
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

// Counts returns the number of messages emitted at each severity so far,
// primarily so tests can assert that a code path actually logged.
func Counts() (info, warn, err int64) {
	return atomic.LoadInt64(&infoCount), atomic.LoadInt64(&warnCount), atomic.LoadInt64(&errCount)
}
