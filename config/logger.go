package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"csscover/misc"
)

const (
	levelNone   = "none"
	levelNormal = "normal"
	levelDebug  = "debug"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// Prepare builds program logger. Console messages go to stderr, stdout may
// carry optimized stylesheet. When debug report is requested file log is
// always written at debug level and ends up in the report.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {
	file := conf.FileLogger
	if rpt != nil {
		file.Level, file.Mode = levelDebug, "overwrite"
	}
	fileCore, moved, err := file.fileCore(rpt)
	if err != nil {
		return nil, err
	}

	log := zap.New(zapcore.NewTee(conf.ConsoleLogger.consoleCore(os.Stderr), fileCore), zap.AddCaller()).Named(misc.GetAppName())
	if len(moved) > 0 {
		log.Warn("Log file was redirected to new location", zap.String("location", moved))
	}
	return log, nil
}

// zapLevel maps configured level name, false means logging is off.
func zapLevel(name string) (zapcore.Level, bool) {
	switch name {
	case levelDebug:
		return zapcore.DebugLevel, true
	case levelNormal:
		return zapcore.InfoLevel, true
	}
	return zapcore.InfoLevel, false
}

func (conf *LoggerConfig) consoleCore(out *os.File) zapcore.Core {
	level, on := zapLevel(conf.Level)
	if !on {
		return zapcore.NewNopCore()
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if EnableColorOutput(out) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	}
	return zapcore.NewCore(shortErrors{zapcore.NewConsoleEncoder(ec)}, zapcore.Lock(out), level)
}

// fileCore opens log destination, falling back to a temporary file. Name of
// the fallback is returned so it could be reported.
func (conf *LoggerConfig) fileCore(rpt *Report) (zapcore.Core, string, error) {
	level, on := zapLevel(conf.Level)
	if !on {
		return zapcore.NewNopCore(), "", nil
	}
	capturePanics(filepath.Join(filepath.Dir(conf.Destination), misc.GetAppName()+"-panic.log"), conf.Mode, rpt)

	var moved string
	f, err := openLog(conf.Destination, conf.Mode)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+".*.log"); err != nil {
			return nil, "", fmt.Errorf("unable to access file log destination (%s): %w", conf.Destination, err)
		}
		moved = f.Name()
	}
	rpt.Store("final.log", f.Name())
	return zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), level), moved, nil
}

// capturePanics sends runtime crash output to path or, if it cannot be
// opened, to a temporary file. Failures are ignored.
func capturePanics(path, mode string, rpt *Report) {
	f, err := openLog(path, mode)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err != nil {
			return
		}
	}
	defer f.Close()
	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err == nil {
		rpt.Store("panic.log", f.Name())
	}
}

func openLog(path, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode == "append" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.OpenFile(path, flags, 0644)
}

// shortErrors keeps console readable: only error text is printed, without
// causes and verbose forms zap derives from aggregated errors.
type shortErrors struct {
	zapcore.Encoder
}

func (e shortErrors) Clone() zapcore.Encoder {
	return shortErrors{e.Encoder.Clone()}
}

func (e shortErrors) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	short := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if err, ok := f.Interface.(error); ok && f.Type == zapcore.ErrorType {
			f.Interface = errors.New(err.Error())
		}
		short[i] = f
	}
	return e.Encoder.EncodeEntry(ent, short)
}
