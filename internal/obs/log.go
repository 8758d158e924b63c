package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared JSON-line logger of the portal service. All
// structured output (request logs, audit events) goes through it.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		// Без префикса и флагов: каждая строка - готовый JSON.
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits one structured log line for a completed HTTP request.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"request log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
