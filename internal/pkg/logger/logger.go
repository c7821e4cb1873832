package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// ZeroLogger é a implementação concreta da interface Logger sobre o zerolog,
// com saída JSON (timestamp, level, message, campos extras e error).
type ZeroLogger struct {
	zl zerolog.Logger
}

// NewLogger cria e retorna uma nova instância do Logger escrevendo em stderr.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter permite redirecionar a saída (usado nos testes).
func NewWithWriter(w io.Writer, level string) Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zl := zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
	return &ZeroLogger{zl: zl}
}

// NewNop descarta tudo.
func NewNop() Logger {
	return &ZeroLogger{zl: zerolog.Nop()}
}

// parseLevel aceita "debug", "info", "warn", "error" e "fatal"; qualquer outro valor vira info.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *ZeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, fields map[string]interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, err error) {
	l.zl.Error().Err(err).Msg(msg)
}

// Fatal registra a mensagem e encerra o processo (os.Exit(1)).
func (l *ZeroLogger) Fatal(msg string, err error) {
	l.zl.Fatal().Err(err).Msg(msg)
}
