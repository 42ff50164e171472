package vision

import "github.com/Quit123/PCB-Detection/internal/domain/port"

// Проверка реализации интерфейса
var _ port.Detector = (*YOLODetector)(nil)
