package logger

import (
	"fmt"
	"io"

	gommon "github.com/labstack/gommon/log"
)

// EchoAdapter lets echo write its own messages (startup, bind failures,
// recovered panics) through a Logger. It satisfies echo.Logger.
type EchoAdapter struct {
	log    Logger
	level  gommon.Lvl
	prefix string
}

// NewEchoAdapter wraps l; a nil l uses the global logger.
func NewEchoAdapter(l Logger) *EchoAdapter {
	if l == nil {
		l = Global().Module("echo")
	}
	return &EchoAdapter{log: l, level: gommon.INFO}
}

// Output is unused; records go to the wrapped logger.
func (a *EchoAdapter) Output() io.Writer { return io.Discard }

// SetOutput is a no-op.
func (a *EchoAdapter) SetOutput(io.Writer) {}

func (a *EchoAdapter) Prefix() string { return a.prefix }

// SetPrefix adds a "prefix" field to every record.
func (a *EchoAdapter) SetPrefix(p string) { a.prefix = p }

func (a *EchoAdapter) Level() gommon.Lvl { return a.level }

// SetLevel drops echo messages below lvl. The wrapped logger still applies
// its own module level afterwards.
func (a *EchoAdapter) SetLevel(lvl gommon.Lvl) { a.level = lvl }

// SetHeader is a no-op; the handler owns the format.
func (a *EchoAdapter) SetHeader(string) {}

func (a *EchoAdapter) emit(lvl gommon.Lvl, msg string, fields ...Field) {
	if lvl < a.level {
		return
	}
	if a.prefix != "" {
		fields = append(fields, String("prefix", a.prefix))
	}
	switch lvl {
	case gommon.DEBUG:
		a.log.Debug(msg, fields...)
	case gommon.WARN:
		a.log.Warn(msg, fields...)
	case gommon.ERROR:
		a.log.Error(msg, fields...)
	default:
		a.log.Info(msg, fields...)
	}
}

func (a *EchoAdapter) Print(i ...any)                 { a.emit(gommon.INFO, fmt.Sprint(i...)) }
func (a *EchoAdapter) Printf(format string, v ...any) { a.emit(gommon.INFO, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Printj(j gommon.JSON)           { a.emit(gommon.INFO, "echo", Any("data", j)) }
func (a *EchoAdapter) Debug(i ...any)                 { a.emit(gommon.DEBUG, fmt.Sprint(i...)) }
func (a *EchoAdapter) Debugf(format string, v ...any) { a.emit(gommon.DEBUG, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Debugj(j gommon.JSON)           { a.emit(gommon.DEBUG, "echo", Any("data", j)) }
func (a *EchoAdapter) Info(i ...any)                  { a.emit(gommon.INFO, fmt.Sprint(i...)) }
func (a *EchoAdapter) Infof(format string, v ...any)  { a.emit(gommon.INFO, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Infoj(j gommon.JSON)            { a.emit(gommon.INFO, "echo", Any("data", j)) }
func (a *EchoAdapter) Warn(i ...any)                  { a.emit(gommon.WARN, fmt.Sprint(i...)) }
func (a *EchoAdapter) Warnf(format string, v ...any)  { a.emit(gommon.WARN, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Warnj(j gommon.JSON)            { a.emit(gommon.WARN, "echo", Any("data", j)) }
func (a *EchoAdapter) Error(i ...any)                 { a.emit(gommon.ERROR, fmt.Sprint(i...)) }
func (a *EchoAdapter) Errorf(format string, v ...any) { a.emit(gommon.ERROR, fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Errorj(j gommon.JSON)           { a.emit(gommon.ERROR, "echo", Any("data", j)) }

// Fatal and Panic log at error level and panic; the server's recover
// middleware or the caller decides what happens next.
func (a *EchoAdapter) Fatal(i ...any) { a.fail(fmt.Sprint(i...)) }

func (a *EchoAdapter) Fatalf(format string, v ...any) { a.fail(fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Fatalj(j gommon.JSON)           { a.fail(fmt.Sprint(j)) }
func (a *EchoAdapter) Panic(i ...any)                 { a.fail(fmt.Sprint(i...)) }
func (a *EchoAdapter) Panicf(format string, v ...any) { a.fail(fmt.Sprintf(format, v...)) }
func (a *EchoAdapter) Panicj(j gommon.JSON)           { a.fail(fmt.Sprint(j)) }

func (a *EchoAdapter) fail(msg string) {
	a.log.Error(msg)
	panic("echo: " + msg)
}
