package utils

import (
	"os"

	"github.com/Gkemhcs/slidebox/internal/config"
	"github.com/sirupsen/logrus"
)

// ServiceName is stamped on every log entry.
const ServiceName = "slidebox"

// New creates the JSON logrus.Logger shared by every component. Debug level in
// development, Info otherwise. Each entry carries the service name and environment.
func New(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	if cfg.Env == "development" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	log.AddHook(defaultFields{
		"service": ServiceName,
		"env":     cfg.Env,
	})
	return log
}

// defaultFields adds fixed fields to entries that do not already set them.
type defaultFields logrus.Fields

func (defaultFields) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (f defaultFields) Fire(entry *logrus.Entry) error {
	for k, v := range f {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
