//go:build windows
// +build windows

package storage

import "os"

// pidAlive проверяет существование процесса по его идентификатору.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	_, err := os.FindProcess(pid)
	return err == nil
}
