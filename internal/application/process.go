package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

// ErrNoRunningProcess возвращается при остановке незапущенной модели.
var ErrNoRunningProcess = errors.New("no running process")

// ProcessStatus — исход операции над процессом детекции.
type ProcessStatus string

const (
	StatusStarted        ProcessStatus = "started"
	StatusAlreadyRunning ProcessStatus = "already_running"
	StatusStopped        ProcessStatus = "stopped"
	StatusKilled         ProcessStatus = "killed"
)

// ProcessInfo описывает результат запуска или остановки.
type ProcessInfo struct {
	Status    ProcessStatus
	PID       int
	ModelPath string
}

type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (h *processHandle) alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ProcessService — реестр живых процессов детекции: не более одного
// процесса на имя модели.
type ProcessService struct {
	models    *storage.ModelStore
	StopGrace time.Duration // ожидание мягкого завершения перед kill

	// BuildCommand собирает команду запуска цикла детекции для весов.
	BuildCommand func(weightsPath string) *exec.Cmd

	mu        sync.Mutex
	processes map[string]*processHandle
}

// NewProcessService создаёт реестр процессов детекции. Цикл детекции
// запускается тем же исполняемым файлом с подкомандой watch.
func NewProcessService(models *storage.ModelStore, selfPath string) *ProcessService {
	return &ProcessService{
		models:    models,
		StopGrace: 5 * time.Second,
		BuildCommand: func(weightsPath string) *exec.Cmd {
			return exec.Command(selfPath, "watch", "--model", weightsPath)
		},
		processes: make(map[string]*processHandle),
	}
}

// Start запускает цикл детекции для модели. Повторный запуск живой
// модели идемпотентен и возвращает существующий PID.
func (s *ProcessService) Start(modelName string) (*ProcessInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.processes[modelName]; ok && h.alive() {
		return &ProcessInfo{Status: StatusAlreadyRunning, PID: h.cmd.Process.Pid}, nil
	}

	weights, err := s.models.ResolveWeights(modelName)
	if err != nil {
		return nil, err
	}

	cmd := s.BuildCommand(weights)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start detection process: %w", err)
	}

	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	s.processes[modelName] = h
	go func() {
		// Wait подбирает зомби и помечает завершение процесса.
		_ = cmd.Wait()
		close(h.done)
	}()

	log.Printf("Started detection process for model %s (PID %d)", modelName, cmd.Process.Pid)
	return &ProcessInfo{Status: StatusStarted, PID: cmd.Process.Pid, ModelPath: weights}, nil
}

// Stop мягко завершает процесс модели; по истечении грейс-периода
// процесс убивается принудительно.
func (s *ProcessService) Stop(modelName string) (*ProcessInfo, error) {
	s.mu.Lock()
	h, ok := s.processes[modelName]
	if ok {
		delete(s.processes, modelName)
	}
	s.mu.Unlock()

	if !ok || !h.alive() {
		return nil, ErrNoRunningProcess
	}

	pid := h.cmd.Process.Pid
	if err := h.cmd.Process.Signal(terminateSignal); err != nil {
		// Процесс успел завершиться между проверкой и сигналом.
		if errors.Is(err, os.ErrProcessDone) {
			<-h.done
			return &ProcessInfo{Status: StatusStopped, PID: pid}, nil
		}
		return nil, fmt.Errorf("terminate process %d: %w", pid, err)
	}

	select {
	case <-h.done:
		log.Printf("Stopped detection process for model %s (PID %d)", modelName, pid)
		return &ProcessInfo{Status: StatusStopped, PID: pid}, nil
	case <-time.After(s.StopGrace):
		if err := h.cmd.Process.Kill(); err != nil {
			return nil, fmt.Errorf("kill process %d: %w", pid, err)
		}
		<-h.done
		log.Printf("Force killed detection process for model %s (PID %d)", modelName, pid)
		return &ProcessInfo{Status: StatusKilled, PID: pid}, nil
	}
}

// StopAll завершает все отслеживаемые процессы перед выключением сервиса.
func (s *ProcessService) StopAll() {
	s.mu.Lock()
	names := make([]string, 0, len(s.processes))
	for name := range s.processes {
		names = append(names, name)
	}
	s.mu.Unlock()

	for _, name := range names {
		if _, err := s.Stop(name); err != nil && !errors.Is(err, ErrNoRunningProcess) {
			log.Printf("Failed to stop process for model %s: %v", name, err)
		}
	}
}

// Running сообщает, жив ли процесс модели.
func (s *ProcessService) Running(modelName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.processes[modelName]
	return ok && h.alive()
}
