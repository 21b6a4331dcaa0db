// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package panics provides the goroutine-wrapper and fatal-exit helpers
// every background worker in xpbd spawns through, so a panic in a
// catch-up or apply goroutine is logged and turned into a clean shutdown
// rather than taking down the process silently.
package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/xpbproject/xpbd/logs"
)

// HandlePanic recovers a panic, logs it along with the stack trace
// captured at the point the goroutine was spawned, and exits the
// process. It is a no-op if no panic is in flight, so it is safe to
// defer unconditionally.
func HandlePanic(log logs.Logger, goroutineStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}

	panicHandlerDone := make(chan struct{})
	go func() {
		log.Criticalf("Fatal error: %+v", err)
		if goroutineStackTrace != nil {
			log.Criticalf("Goroutine stack trace: %s", goroutineStackTrace)
		}
		log.Criticalf("Stack trace: %s", debug.Stack())
		close(panicHandlerDone)
	}()

	const panicHandlerTimeout = 5 * time.Second
	select {
	case <-time.After(panicHandlerTimeout):
		fmt.Fprintln(os.Stderr, "Couldn't handle a fatal error. Exiting...")
	case <-panicHandlerDone:
	}
	log.Criticalf("Exiting")
	os.Exit(1)
}

// GoroutineWrapperFunc returns a function that spawns its argument on its
// own goroutine; a panic there is recovered, logged with its stack traces
// through log, and then ends the process via HandlePanic.
func GoroutineWrapperFunc(log logs.Logger) func(func()) {
	return func(f func()) {
		stackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, stackTrace)
			f()
		}()
	}
}

// AfterFuncWrapperFunc returns a time.AfterFunc wrapper that recovers and
// logs a panic through log the same way GoroutineWrapperFunc does.
func AfterFuncWrapperFunc(log logs.Logger) func(d time.Duration, f func()) *time.Timer {
	return func(d time.Duration, f func()) *time.Timer {
		stackTrace := debug.Stack()
		return time.AfterFunc(d, func() {
			defer HandlePanic(log, stackTrace)
			f()
		})
	}
}

// Exit logs reason through log and terminates the process.
func Exit(log logs.Logger, reason string) {
	exitHandlerDone := make(chan struct{})
	go func() {
		log.Criticalf("Exiting: %s", reason)
		close(exitHandlerDone)
	}()

	const exitHandlerTimeout = 5 * time.Second
	select {
	case <-time.After(exitHandlerTimeout):
		fmt.Fprintln(os.Stderr, "Couldn't exit gracefully.")
	case <-exitHandlerDone:
	}
	os.Exit(1)
}
