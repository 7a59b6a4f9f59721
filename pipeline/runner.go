// Package pipeline drives the resolver/extractor pair over line streams and
// exposes the request-level entry point shared by the worker and the API.
package pipeline

import (
	"morphtext.com/mfx/features"
	"morphtext.com/mfx/logger"
	"morphtext.com/mfx/morph"
	"bufio"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"strings"
)

// Pipeline turns one featurization request into its feature lines.
type Pipeline func(request Request) (string, error)

// Runner streams input lines through tag resolution and feature extraction.
// With a positive batch size it buffers that many lines per analyzer call,
// which amortizes subprocess cost for the batch analyzer; with batch size 0
// every line is resolved as it arrives, which suits the persistent service
// analyzer.
type Runner struct {
	resolver  *morph.Resolver
	extractor *features.Extractor
	batchSize int
	mfxLogger zerolog.Logger
}

func NewRunner(resolver *morph.Resolver, extractor *features.Extractor, batchSize int) *Runner {
	return &Runner{
		resolver:  resolver,
		extractor: extractor,
		batchSize: batchSize,
		mfxLogger: logger.NewLogger("MFX Pipeline"),
	}
}

// Process writes one feature line per input line, in input order. Blank
// input lines come out as blank lines.
func (runner *Runner) Process(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	writer := bufio.NewWriter(out)
	if runner.batchSize > 0 {
		return runner.processBatches(scanner, writer)
	}
	return runner.processLines(scanner, writer)
}

func (runner *Runner) processBatches(scanner *bufio.Scanner, writer *bufio.Writer) error {
	batch := make([]string, 0, runner.batchSize)
	for scanner.Scan() {
		batch = append(batch, scanner.Text())
		if len(batch) == runner.batchSize {
			if err := runner.flush(batch, writer); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return runner.flush(batch, writer)
}

// flush resolves the words of the buffered lines in encounter order with one
// analyzer round trip, then emits their feature lines.
func (runner *Runner) flush(batch []string, writer *bufio.Writer) error {
	words := make([]string, 0, len(batch))
	for _, line := range batch {
		if tokens := strings.Fields(line); len(tokens) > 0 {
			words = append(words, tokens[0])
		}
	}
	runner.mfxLogger.Debug().Int("lines", len(batch)).Int("words", len(words)).Msg("Resolving batch")
	if err := runner.resolver.Resolve(words...); err != nil {
		return err
	}
	for _, line := range batch {
		if _, err := writer.WriteString(runner.extractor.Line(line)); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func (runner *Runner) processLines(scanner *bufio.Scanner, writer *bufio.Writer) error {
	for scanner.Scan() {
		line := scanner.Text()
		if tokens := strings.Fields(line); len(tokens) > 0 {
			if err := runner.resolver.Resolve(tokens[0]); err != nil {
				return err
			}
		}
		if _, err := writer.WriteString(runner.extractor.Line(line)); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// NewPipeline wraps the runner as the request handler the worker and the
// REST API share.
func NewPipeline(runner *Runner) Pipeline {
	return func(request Request) (string, error) {
		var out strings.Builder
		if err := runner.Process(strings.NewReader(request.Text), &out); err != nil {
			return "", fmt.Errorf("request %s: %w", request.Tid, err)
		}
		return out.String(), nil
	}
}
