// Package logger provides category loggers for the CDR guard components.
// It wraps logrus and exposes entries such as MainLog, ParseLog and EngineLog.
// Level and caller reporting can be changed at runtime through InitLog.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const moduleName = "CDRGUARD"

var (
	initOnce sync.Once

	// MainLog is used for process lifecycle events.
	MainLog *log.Entry

	// CfgLog is used while loading and validating configuration.
	CfgLog *log.Entry

	// GenLog is used by the synthetic CDR generator.
	GenLog *log.Entry

	// ParseLog is used by the CSV parser (dropped rows, defaulted values).
	ParseLog *log.Entry

	// EngineLog is used by the scoring pipeline.
	EngineLog *log.Entry

	// ReportLog is used for report assembly, storage and alerts.
	ReportLog *log.Entry

	// GeoLog is used for GeoIP enrichment.
	GeoLog *log.Entry

	// APILog is used by the HTTP layer.
	APILog *log.Entry
)

func init() {
	// Library packages log through these entries even when the process never
	// calls InitLog (tests, embedding applications).
	setupEntries()
}

func setupEntries() {
	entry := func(category string) *log.Entry {
		return log.WithFields(log.Fields{
			"module":   moduleName,
			"category": category,
		})
	}
	MainLog = entry("MAIN")
	CfgLog = entry("CFG")
	GenLog = entry("GEN")
	ParseLog = entry("PARSE")
	EngineLog = entry("ENGINE")
	ReportLog = entry("REPORT")
	GeoLog = entry("GEOIP")
	APILog = entry("API")
}

// InitLog configures the global logrus settings. The formatter is installed
// once; level and caller reporting are applied on every call.
func InitLog(levelString string, reportCaller bool) error {
	initOnce.Do(func() {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		setupEntries()
	})

	var initErr error
	level, err := parseLogLevel(levelString)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		CfgLog.Warnf("invalid log level %q, falling back to info: %v", levelString, err)
		initErr = err
	} else {
		log.SetLevel(level)
	}
	log.SetReportCaller(reportCaller)

	return initErr
}

// SetOutput redirects all category loggers, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// parseLogLevel converts a case-insensitive level name into a logrus.Level.
func parseLogLevel(levelString string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelString)) {
	case "trace":
		return log.TraceLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	case "panic":
		return log.PanicLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level: %s", levelString)
	}
}
