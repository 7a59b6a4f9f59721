package main

import (
	"morphtext.com/mfx/api"
	"morphtext.com/mfx/features"
	"morphtext.com/mfx/logger"
	"morphtext.com/mfx/morph"
	"morphtext.com/mfx/pipeline"
	"morphtext.com/mfx/stts"
	"morphtext.com/mfx/tagset"
	"morphtext.com/mfx/worker"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"net/http"
	"os"
	"time"
)

type Config struct {
	Backend       string `envconfig:"MFX_BACKEND" default:"morphisto"`
	BatchSize     int    `envconfig:"MFX_BATCH_SIZE" default:"10000"`
	TagMapping    string `envconfig:"MFX_TAG_MAPPING" default:""`
	WorkerActive  bool   `envconfig:"MFX_WORKER_ACTIVE" default:"false"`
	RestAPIActive bool   `envconfig:"MFX_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"MFX_REST_API_PORT" default:"10000"`
}

func main() {
	logger.SetupLogging()
	mfxLogger := logger.NewLogger("Main")
	fatalErrLogger := mfxLogger.Fatal().Caller()
	wrap := flag.Bool("wrap", false, "a bool")
	checkMapping := flag.Bool("check-mapping", false, "a bool")
	flag.Parse()

	// relay a morphology server's output into our log stream
	if *wrap {
		args := flag.Args()
		if len(args) == 0 {
			fatalErrLogger.Msg("Expected a command after -wrap")
			os.Exit(1)
		}
		logger.WrapProcess(args[0], args[1:]...)
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	mapping, err := loadMapping(config)
	if err != nil {
		fatalErrLogger.Err(err).Msg("Failed to load tag mapping")
		os.Exit(1)
	}

	// validate mapping table
	if *checkMapping {
		mfxLogger.Info().Msgf("Tag mapping covers %d word classes. Exit...", mapping.ClassCount())
		return
	}

	cache := tagset.NewCache()
	backend, batchSize, err := newBackend(config, mapping)
	if err != nil {
		fatalErrLogger.Err(err).Msg("Failed to start analyzer backend")
		os.Exit(1)
	}
	resolver := morph.NewResolver(backend, cache)
	runner := pipeline.NewRunner(resolver, features.NewExtractor(cache), batchSize)

	// Without a service flag the process is a plain filter: feature lines
	// for stdin tokens go to stdout, then the analyzer shuts down.
	if !config.RestAPIActive && !config.WorkerActive {
		err = runner.Process(os.Stdin, os.Stdout)
		if closeErr := backend.Close(); closeErr != nil {
			mfxLogger.Err(closeErr).Msg("Failed to stop analyzer backend")
		}
		if err != nil {
			fatalErrLogger.Err(err).Msg("Feature extraction failed")
			os.Exit(1)
		}
		return
	}

	ppln := pipeline.NewPipeline(runner)

	if config.RestAPIActive {
		serveAPI := func() {
			mfxLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{
				Pipeline: ppln,
			}
			http.HandleFunc("/features", apiRequest.ProcessData)
			http.HandleFunc("/health/live", api.Health)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			mfxLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}
		if !config.WorkerActive {
			serveAPI()
			return
		}
		go serveAPI()
	}

	mfxLogger.Info().Msg("Start MFX Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			mfxLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.StartWorker()
		if err != nil {
			mfxLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

func loadMapping(config Config) (*stts.Mapping, error) {
	if config.TagMapping == "" {
		return stts.DefaultMapping(), nil
	}
	return stts.LoadMapping(config.TagMapping)
}

// newBackend picks the analyzer behind the tag cache. Gertwol answers whole
// batches through a one-shot subprocess, so it gets the configured batch
// size; the Morphisto service is queried line by line.
func newBackend(config Config, mapping *stts.Mapping) (morph.Backend, int, error) {
	switch config.Backend {
	case "gertwol":
		backend, err := morph.NewGertwol()
		if err != nil {
			return nil, 0, err
		}
		return backend, config.BatchSize, nil
	case "morphisto":
		backend, err := morph.NewMorphisto(mapping)
		if err != nil {
			return nil, 0, err
		}
		return backend, 0, nil
	default:
		return nil, 0, fmt.Errorf("unknown analyzer backend %q", config.Backend)
	}
}
