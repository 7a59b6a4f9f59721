package morph

import (
	"morphtext.com/mfx/logger"
	"morphtext.com/mfx/tagset"
	"bytes"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"os/exec"
	"strings"
)

type GertwolConfig struct {
	WrapperPath string `envconfig:"MFX_GERTWOL_WRAPPER" required:"true"`
}

// Gertwol resolves words through the external batch analyzer: one
// short-lived subprocess per query batch. The wrapper executable takes
// newline-joined words on stdin and writes the analyses to stdout.
type Gertwol struct {
	config    GertwolConfig
	mfxLogger zerolog.Logger
}

func NewGertwol() (*Gertwol, error) {
	mfxLogger := logger.NewLogger("Gertwol client")
	var config GertwolConfig
	if err := envconfig.Process("", &config); err != nil {
		mfxLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}
	return &Gertwol{config: config, mfxLogger: mfxLogger}, nil
}

// Analyze runs the wrapper once for the whole batch and returns its full
// output. There is no retry: batch analysis is deterministic, so a failing
// subprocess is fatal for the run.
func (gertwol *Gertwol) Analyze(words []string) (string, error) {
	cmd := exec.Command(gertwol.config.WrapperPath)
	cmd.Stdin = strings.NewReader(strings.Join(words, "\n"))
	var out bytes.Buffer
	cmd.Stdout = &out
	gertwol.mfxLogger.Debug().Int("words", len(words)).Msg("Starting batch analysis")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("batch analyzer %s: %w", gertwol.config.WrapperPath, err)
	}
	return out.String(), nil
}

func (gertwol *Gertwol) Close() error {
	return nil
}

// Tags that chain with further tags instead of ending an analysis.
var gertwolChainTags = map[string]struct{}{
	"TRENNBAR": {},
	"PART":     {},
	"V":        {},
	"NUM":      {},
	"A":        {},
	"pre":      {},
	"post":     {},
	"ABK":      {},
}

// Normalize converts raw Gertwol output into POS tags. A line like
// `"<Haus>"` introduces the next word; every other line carries one
// candidate analysis whose tokens, past the leading lemma, are scanned into
// a colon-joined tag.
func (gertwol *Gertwol) Normalize(raw string, cache *tagset.Cache) {
	word := ""
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, `"<`) {
			word = ""
			if len(line) >= 4 {
				word = line[2 : len(line)-2]
			}
			continue
		}

		tokens := strings.Fields(line)
		pos := ""
		i := 1
		for i < len(tokens) {
			tok := tokens[i]
			if tok == "*" {
				// analyzer bookkeeping, dropped without ending the scan
				i++
				continue
			}
			if _, chains := gertwolChainTags[tok]; chains {
				pos = joinTag(pos, tok)
				i++
				continue
			}
			if tok == "S" && i+1 < len(tokens) && tokens[i+1] == "EIGEN" {
				pos = joinTag(pos, "S:EIGEN")
				i += 2
				break
			}
			pos = joinTag(pos, tok)
			i++
			break
		}

		switch {
		case containsToken(tokens, "zu"):
			// aufhören vs. aufzuhören
			pos += ":zu"
		case strings.HasPrefix(pos, "A:") && len(tokens) > i+1:
			// inflected adjective use (ADJA) vs. uninflected (ADJD)
			pos += ":flekt"
		}

		if pos != "" && word != "" {
			cache.Add(word, pos)
		}
	}
}

func joinTag(pos string, tag string) string {
	if pos == "" {
		return tag
	}
	return pos + ":" + tag
}

func containsToken(tokens []string, want string) bool {
	for _, tok := range tokens {
		if tok == want {
			return true
		}
	}
	return false
}
