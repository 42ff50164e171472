package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config — настройки обоих сервисов, собранные из окружения.
type Config struct {
	// Сетевые адреса сторон детекции и обучения.
	DetectHost string
	DetectPort string
	ModelHost  string
	ModelPort  string

	// Корень данных и производные каталоги конвейера.
	DataRoot    string
	InboundDir  string // входящая очередь изображений с AOI
	LowConfDir  string // tmp/, marked/, raw/, labels/ внутри
	TrainPool   string // пул следующей тренировки: images/ + labels/
	HistoryDir  string // append-only архив партий
	ModelsDir   string // каталоги артефактов модели
	DatasetDir  string // материализованный train/val датасет
	DatasetZip  string // путь упаковки пула для отправки
	WeightsName string // имя файла весов внутри артефакта

	// Пороги и ритм цикла триажа.
	MinConfidence    float64
	HighConfidence   float64
	EmptyPoll        time.Duration
	BatchPause       time.Duration
	InferenceTimeout time.Duration

	// Управление процессами и обучением.
	StopGrace    time.Duration
	SplitRatio   float64
	SplitSeed    int64
	Epochs       int
	BatchSize    int
	TrainCommand string

	// Политика слияния партии.
	MergeAllowOrphans bool

	// Уведомления во внешний канал (опционально).
	TelegramToken  string
	TelegramChatID int64
}

// Load читает .env и переменные окружения, подставляя значения по умолчанию.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	dataRoot := getString("DATA_ROOT", "./data")

	cfg := &Config{
		DetectHost: getString("DETECT_HOST", "127.0.0.1"),
		DetectPort: getString("DETECT_PORT", "8000"),
		ModelHost:  getString("MODEL_HOST", "127.0.0.1"),
		ModelPort:  getString("MODEL_PORT", "9000"),

		DataRoot:    dataRoot,
		InboundDir:  getString("INBOUND_DIR", filepath.Join(dataRoot, "target")),
		LowConfDir:  getString("LOW_CONF_DIR", filepath.Join(dataRoot, "low_conf_images")),
		TrainPool:   getString("TRAIN_POOL_DIR", filepath.Join(dataRoot, "datasets", "raw", "next_train")),
		HistoryDir:  getString("HISTORY_DIR", filepath.Join(dataRoot, "datasets", "history")),
		ModelsDir:   getString("MODELS_DIR", filepath.Join(dataRoot, "runs", "active_learning")),
		DatasetDir:  getString("DATASET_DIR", filepath.Join(dataRoot, "datasets", "next_train")),
		DatasetZip:  getString("DATASET_ZIP", filepath.Join(dataRoot, "datasets", "next_train.zip")),
		WeightsName: getString("WEIGHTS_NAME", "best.onnx"),

		MinConfidence:    getFloat("MIN_CONFIDENCE", 0.25),
		HighConfidence:   getFloat("HIGH_CONFIDENCE", 0.6),
		EmptyPoll:        getDuration("EMPTY_POLL", time.Second),
		BatchPause:       getDuration("BATCH_PAUSE", 50*time.Millisecond),
		InferenceTimeout: getDuration("INFERENCE_TIMEOUT", 30*time.Second),

		StopGrace:    getDuration("STOP_GRACE", 5*time.Second),
		SplitRatio:   getFloat("SPLIT_RATIO", 0.8),
		SplitSeed:    getInt64("SPLIT_SEED", 1),
		Epochs:       getInt("EPOCHS", 5),
		BatchSize:    getInt("BATCH_SIZE", 2),
		TrainCommand: getString("TRAIN_COMMAND", "yolo-train"),

		MergeAllowOrphans: getBool("MERGE_ALLOW_ORPHANS", false),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: getInt64("TELEGRAM_CHAT_ID", 0),
	}

	return cfg, nil
}

// DetectBaseURL возвращает адрес сервиса стороны детекции.
func (c *Config) DetectBaseURL() string {
	return "http://" + c.DetectHost + ":" + c.DetectPort
}

// ModelBaseURL возвращает адрес сервиса стороны обучения.
func (c *Config) ModelBaseURL() string {
	return "http://" + c.ModelHost + ":" + c.ModelPort
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
