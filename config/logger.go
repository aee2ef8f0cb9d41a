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

	"stga/misc"
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

// Prepare builds the program logger. Console output is split: progress goes
// to stdout, errors to stderr with verbose error fields trimmed. The file
// log keeps everything; when a debug report was requested it is forced to
// debug level and a fresh file so the report carries a complete run.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {
	stdoutEnc := consoleEncoder(os.Stdout, false)
	stderrEnc := consoleEncoder(os.Stderr, true)

	errLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	var consoleFloor zapcore.Level
	switch conf.ConsoleLogger.Level {
	case "normal":
		consoleFloor = zapcore.InfoLevel
	case "debug":
		consoleFloor = zapcore.DebugLevel
	}

	outCore, errCore := zapcore.NewNopCore(), zapcore.NewNopCore()
	if conf.ConsoleLogger.Level == "normal" || conf.ConsoleLogger.Level == "debug" {
		outCore = zapcore.NewCore(stdoutEnc, zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return consoleFloor <= lvl && lvl < zapcore.ErrorLevel
			}))
		errCore = zapcore.NewCore(stderrEnc, zapcore.Lock(os.Stderr), errLevel)
	}

	opener := func(fname, mode string) (*os.File, error) {
		flags := os.O_CREATE | os.O_WRONLY
		if mode == "append" {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		return os.OpenFile(fname, flags, 0644)
	}

	level, mode := conf.FileLogger.Level, conf.FileLogger.Mode
	if rpt != nil {
		level, mode = "debug", "overwrite"
	}

	fileCore := zapcore.NewNopCore()
	var redirected string
	if level == "debug" || level == "normal" {
		floor := zap.InfoLevel
		if level == "debug" {
			floor = zap.DebugLevel
		}
		fileEnc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

		// a crash must leave a trace even when zap never gets to flush
		var ef *os.File
		if f, err := opener(filepath.Join(filepath.Dir(conf.FileLogger.Destination), misc.GetAppName()+"-panic.log"), mode); err == nil {
			ef = f
		} else if f, err := os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err == nil {
			ef = f
		}
		if ef != nil {
			debug.SetCrashOutput(ef, debug.CrashOptions{})
			rpt.Store("panic.log", ef.Name())
			ef.Close()
		}

		if f, err := opener(conf.FileLogger.Destination, mode); err == nil {
			fileCore = zapcore.NewCore(fileEnc, zapcore.Lock(f), zap.NewAtomicLevelAt(floor))
			rpt.Store("final.log", f.Name())
		} else if f, err = os.CreateTemp("", misc.GetAppName()+".*.log"); err == nil {
			redirected = f.Name()
			fileCore = zapcore.NewCore(fileEnc, zapcore.Lock(f), zap.NewAtomicLevelAt(floor))
			rpt.Store("final.log", redirected)
		} else {
			return nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
		}
	}

	log := zap.New(zapcore.NewTee(errCore, outCore, fileCore), zap.AddCaller())
	if len(redirected) != 0 {
		log.Warn("Log file was redirected to new location", zap.String("location", redirected))
	}
	return log.Named(misc.GetAppName()), nil
}

// consoleEncoder prepares a per-stream encoder: colored levels and no
// timestamps when the stream is an interactive terminal, plain otherwise.
func consoleEncoder(f *os.File, trimErrors bool) zapcore.Encoder {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(f) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if trimErrors {
		return shortErrEncoder{zapcore.NewConsoleEncoder(ec)}
	}
	return zapcore.NewConsoleEncoder(ec)
}

// shortErrEncoder drops the errorVerbose field when printing errors, the
// console gets the message, the file log keeps the full chain.
type shortErrEncoder struct {
	zapcore.Encoder
}

func (c shortErrEncoder) Clone() zapcore.Encoder {
	return shortErrEncoder{c.Encoder.Clone()}
}

func (c shortErrEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	var trimmed []zapcore.Field
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		trimmed = append(trimmed, f)
	}
	return c.Encoder.EncodeEntry(ent, trimmed)
}
