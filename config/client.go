package config

import (
	"strings"

	"github.com/joho/godotenv"
)

// ClientConfig configures the terminal frontend.
type ClientConfig struct {
	APIURL        string
	KrokiURL      string
	RecordCommand []string
	ExportDir     string
	Log           LogConfig
}

// DefaultRecordCommand captures WAV from the default ALSA device to stdout.
var DefaultRecordCommand = []string{"arecord", "-q", "-f", "cd", "-t", "wav", "-"}

// LoadClient reads the frontend settings from .env and the environment.
func LoadClient() ClientConfig {
	_ = godotenv.Load()
	cfg := ClientConfig{
		APIURL:        "http://localhost:3000",
		KrokiURL:      "https://kroki.io",
		RecordCommand: DefaultRecordCommand,
		ExportDir:     ".",
		Log:           LogConfig{Format: "text"},
	}
	setString(&cfg.APIURL, "API_URL")
	setString(&cfg.KrokiURL, "KROKI_URL")
	setString(&cfg.ExportDir, "EXPORT_DIR")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.File, "CLIENT_LOG_FILE")
	var cmd string
	setString(&cmd, "RECORD_COMMAND")
	if fields := strings.Fields(cmd); len(fields) > 0 {
		cfg.RecordCommand = fields
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.KrokiURL = strings.TrimRight(cfg.KrokiURL, "/")
	return cfg
}
