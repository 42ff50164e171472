//go:build !windows
// +build !windows

package app

import "syscall"

// terminateSignal — сигнал мягкого завершения процесса детекции.
var terminateSignal = syscall.SIGTERM
