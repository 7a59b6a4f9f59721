package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
)

// WrapProcess runs the executable with the service's stderr piped through
// this process: JSON log lines pass through untouched, anything else is
// re-logged, and a panic trace is collected and reported as a single fatal
// entry. Deployments launch the service binary under this wrapper so that a
// crash still produces one well-formed log record.
func WrapProcess(executable string, arg ...string) {
	mfxLogger := NewLogger("Logs wrapper")
	defer handlePanic(mfxLogger)

	r, w, err := os.Pipe()
	if err != nil {
		mfxLogger.Fatal().Err(err).Msg("Could not create pipe for logs")
		os.Exit(1)
	}

	cmd := exec.Command(executable, arg...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = w

	if err = cmd.Start(); err != nil {
		mfxLogger.Fatal().Err(err).Msg("Could not launch wrapped process")
		os.Exit(1)
	}
	exitCodeCh := make(chan int)
	logsCh := make(chan []byte)

	go func() {
		defer handlePanic(mfxLogger)
		exitCodeCh <- exitCode(cmd.Wait())
	}()
	go collectLogs(r, mfxLogger, logsCh)

	var panicLogs strings.Builder
	foundPanic := false
	for {
		select {
		case code := <-exitCodeCh:
			handleExit(code, panicLogs.String(), mfxLogger)
		case line := <-logsCh:
			foundPanic = handleLogLine(line, foundPanic, &panicLogs, mfxLogger)
		}
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	return exitErr.ExitCode()
}

func collectLogs(r *os.File, mfxLogger zerolog.Logger, logsCh chan<- []byte) {
	defer handlePanic(mfxLogger)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// scanner reuses its buffer between Scan calls
		logsCh <- append([]byte(nil), scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		mfxLogger.Fatal().Err(err).Msg("Error scanning the wrapped process's stderr")
		os.Exit(1)
	}
}

func handleExit(code int, panicLogs string, mfxLogger zerolog.Logger) {
	if code == 0 {
		mfxLogger.Info().Msg("Exited with code 0")
	} else {
		mfxLogger.
			Fatal().
			Err(errors.New(panicLogs)).
			Msgf("Wrapped process exited with code: %d", code)
	}
	os.Exit(code)
}

func handleLogLine(line []byte, foundPanic bool, builder *strings.Builder, mfxLogger zerolog.Logger) bool {
	logsLine := string(line)
	if !foundPanic && strings.HasPrefix(logsLine, "panic") {
		foundPanic = true
	}
	switch {
	case len(line) == 0:
		return foundPanic
	case foundPanic:
		builder.WriteString(logsLine)
		builder.WriteString("\n")
	case isJSON(line):
		println(logsLine)
	default:
		mfxLogger.Error().Msgf("Got log line that is not JSON formatted: '%s'", logsLine)
	}
	return foundPanic
}

func handlePanic(mfxLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	mfxLogger.Fatal().
		Caller().
		Str("error", fmt.Sprint(r)).
		Str("stack_trace", string(debug.Stack())).
		Msg("Program panicked and exited")
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
