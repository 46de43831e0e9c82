// Package logging builds the per-subsystem loggers hfpagentd runs with:
// one *logrus.Entry per concern, each writing to
// stdout and to a shared rotating file at independently configurable
// levels.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Loggers bundles the entries the daemon hands out to its collaborators.
// Machine gets its own entry (further narrowed per peer via WithField) so
// a deployment can turn up state-machine tracing without drowning in
// D-Bus chatter, and vice versa.
type Loggers struct {
	Machine  *logrus.Entry
	Adapter  *logrus.Entry
	Registry *logrus.Entry

	file *lumberjack.Logger
}

// Config is the [logging] section of the daemon's ini file.
type Config struct {
	ConsoleMinLevel int
	FileMinLevel    int
	MachineLevel    int
	AdapterLevel    int
	RegistryLevel   int
	LogFile         string
	MaxSizeMB       int
	MaxBackups      int
}

// LoadConfig reads the [logging] section of cfg, defaulting the file level
// to "debug", every other level to "info" and the rotated file to
// hfpagentd.log.
func LoadConfig(cfg *ini.File) Config {
	sec := cfg.Section("logging")
	return Config{
		ConsoleMinLevel: sec.Key("console_min_level").MustInt(2),
		FileMinLevel:    sec.Key("file_min_level").MustInt(1),
		MachineLevel:    sec.Key("machine").MustInt(2),
		AdapterLevel:    sec.Key("adapter").MustInt(2),
		RegistryLevel:   sec.Key("registry").MustInt(2),
		LogFile:         sec.Key("log_file").MustString("hfpagentd.log"),
		MaxSizeMB:       sec.Key("max_size_mb").MustInt(100),
		MaxBackups:      sec.Key("max_backups").MustInt(3),
	}
}

// New builds a Loggers from cfg. Callers must call Close when done to
// flush the rotated file.
func New(cfg Config) *Loggers {
	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	consoleMin := toLogrusLevel(cfg.ConsoleMinLevel)
	fileMin := toLogrusLevel(cfg.FileMinLevel)
	return &Loggers{
		Machine:  newLogger("machine", toLogrusLevel(cfg.MachineLevel), consoleMin, fileMin, file),
		Adapter:  newLogger("adapter", toLogrusLevel(cfg.AdapterLevel), consoleMin, fileMin, file),
		Registry: newLogger("registry", toLogrusLevel(cfg.RegistryLevel), consoleMin, fileMin, file),
		file:     file,
	}
}

// Close flushes and closes the rotated log file.
func (l *Loggers) Close() error {
	return l.file.Close()
}

// writerHook writes an entry's formatted line to Writer, but only for the
// levels listed in LogLevels.
type writerHook struct {
	Writer    io.Writer
	LogLevels []logrus.Level
}

func (h *writerHook) Fire(e *logrus.Entry) error {
	line, err := e.String()
	if err != nil {
		return err
	}
	_, err = h.Writer.Write([]byte(line))
	return err
}

func (h *writerHook) Levels() []logrus.Level {
	return h.LogLevels
}

func newLogger(name string, level, consoleMin, fileMin logrus.Level, file io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	logger.AddHook(&writerHook{Writer: os.Stdout, LogLevels: availableLevels(consoleMin)})
	logger.AddHook(&writerHook{Writer: file, LogLevels: availableLevels(fileMin)})
	return logger.WithField("subsystem", name)
}

func availableLevels(min logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= min {
			levels = append(levels, l)
		}
	}
	return levels
}

func toLogrusLevel(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.TraceLevel
	case v == 1:
		return logrus.DebugLevel
	case v == 2:
		return logrus.InfoLevel
	case v == 3:
		return logrus.WarnLevel
	case v == 4:
		return logrus.ErrorLevel
	case v == 5:
		return logrus.FatalLevel
	default:
		return logrus.PanicLevel
	}
}
