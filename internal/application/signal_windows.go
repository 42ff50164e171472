//go:build windows
// +build windows

package app

import "os"

// На Windows нет SIGTERM, используется Kill сразу.
var terminateSignal = os.Kill
