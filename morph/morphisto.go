package morph

import (
	"morphtext.com/mfx/logger"
	"morphtext.com/mfx/stts"
	"morphtext.com/mfx/tagset"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MorphistoConfig describes the SFST analysis server and how to reach it.
type MorphistoConfig struct {
	SFSTBin       string        `envconfig:"MFX_SFST_BIN" default:"fst-infl2-daemon"`
	Model         string        `envconfig:"MFX_MORPHISTO_MODEL" required:"true"`
	Host          string        `envconfig:"MFX_MORPHISTO_HOST" default:"localhost"`
	Port          int           `envconfig:"MFX_MORPHISTO_PORT" default:"9010"`
	RetryInterval time.Duration `envconfig:"MFX_RETRY_INTERVAL" default:"100ms"`
}

var morphistoMainClass = regexp.MustCompile(`<\+(.*?)>`)

// Morphisto resolves words against a long-lived SFST analysis server over a
// loopback socket. It owns the server process it spawned: a dead server is
// replaced transparently, a server that is still loading its model is waited
// for, and the current server is terminated once at Close.
type Morphisto struct {
	config    MorphistoConfig
	mapping   *stts.Mapping
	server    session
	spawn     func() (session, error)
	mfxLogger zerolog.Logger
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewMorphisto builds the service-analyzer backend from the environment and
// starts its analysis server. When another tagger instance already serves the
// configured port, the duplicate server loses the bind and exits on its own,
// which is harmless.
func NewMorphisto(mapping *stts.Mapping) (*Morphisto, error) {
	mfxLogger := logger.NewLogger("Morphisto client")

	var config MorphistoConfig
	if err := envconfig.Process("", &config); err != nil {
		mfxLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	morphisto := &Morphisto{
		config:    config,
		mapping:   mapping,
		mfxLogger: mfxLogger,
	}
	morphisto.spawn = func() (session, error) {
		return startDaemon(config.SFSTBin, config.Port, config.Model)
	}

	server, err := morphisto.spawn()
	if err != nil {
		mfxLogger.Error().Err(err).Msg("Could not start analysis server")
		return nil, err
	}
	morphisto.server = server
	return morphisto, nil
}

// Analyze sends the newline-joined words to the analysis server and returns
// its full response. It blocks until a connection succeeds: a refused
// connection means the server is either still loading its model or has died,
// and only a dead server warrants a replacement spawn.
func (morphisto *Morphisto) Analyze(words []string) (string, error) {
	addr := net.JoinHostPort(morphisto.config.Host, strconv.Itoa(morphisto.config.Port))
	payload := []byte(strings.Join(words, "\n"))

	morphisto.mu.Lock()
	defer morphisto.mu.Unlock()
	for {
		raw, err := morphisto.exchange(addr, payload)
		if err == nil {
			return raw, nil
		}
		if morphisto.server == nil || morphisto.server.Exited() {
			morphisto.mfxLogger.Warn().Err(err).Msg("Analysis server has stopped, starting a new one")
			server, spawnErr := morphisto.spawn()
			if spawnErr != nil {
				morphisto.mfxLogger.Error().Err(spawnErr).Msg("Could not start analysis server")
			} else {
				morphisto.server = server
			}
		} else {
			morphisto.mfxLogger.Debug().Err(err).Msg("Analysis server not ready yet")
		}
		time.Sleep(morphisto.config.RetryInterval)
	}
}

func (morphisto *Morphisto) exchange(addr string, payload []byte) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err = conn.Write(payload); err != nil {
		return "", err
	}
	// half-close tells the server the query is complete; it answers and
	// closes its side when done
	if err = conn.(*net.TCPConn).CloseWrite(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Normalize parses the server response. An echo line introduces the word the
// following analyses belong to, "no result" lines are skipped, and every
// other line contributes the STTS tags its main class maps to.
func (morphisto *Morphisto) Normalize(raw string, cache *tagset.Cache) {
	word := ""
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, ">") {
			word = ""
			if len(line) > 2 {
				word = line[2:]
			}
			continue
		}
		if strings.HasPrefix(line, "no result") {
			continue
		}
		match := morphistoMainClass.FindStringSubmatch(line)
		if match == nil || word == "" {
			continue
		}
		tag, tag2 := morphisto.mapping.MapClass(match[1], line)
		if tag != "" {
			cache.Add(word, tag)
		}
		if tag2 != "" {
			cache.Add(word, tag2)
		}
	}
}

// Close terminates the owned analysis server. Safe to call more than once.
func (morphisto *Morphisto) Close() error {
	morphisto.closeOnce.Do(func() {
		morphisto.mu.Lock()
		defer morphisto.mu.Unlock()
		if morphisto.server != nil {
			morphisto.server.Terminate()
		}
	})
	return nil
}
