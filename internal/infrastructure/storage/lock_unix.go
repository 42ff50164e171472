//go:build !windows
// +build !windows

package storage

import "syscall"

// pidAlive проверяет существование процесса нулевым сигналом.
// EPERM означает живой процесс другого пользователя.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
