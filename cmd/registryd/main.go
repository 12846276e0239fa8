package main

import (
	"log"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/attestia/agent-trust-registry/cmd/flags"
	"github.com/attestia/agent-trust-registry/httpserver"
	"github.com/attestia/agent-trust-registry/interfaces"
	"github.com/attestia/agent-trust-registry/registry"
	"github.com/attestia/agent-trust-registry/signal"
	"github.com/attestia/agent-trust-registry/storage"
)

var serverFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.WeightsFileFlag,
	flags.EvidenceBackendsFlag,
	flags.MaxNameLengthFlag,
	flags.ValidateTEEQuotesFlag,
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:   "registryd",
		Usage:  "Serve the agent trust registry API",
		Flags:  serverFlags,
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
	weightsFile := cCtx.String(flags.WeightsFileFlag.Name)
	evidenceURIs := cCtx.StringSlice(flags.EvidenceBackendsFlag.Name)
	maxNameLength := cCtx.Int(flags.MaxNameLengthFlag.Name)
	validateQuotes := cCtx.Bool(flags.ValidateTEEQuotesFlag.Name)

	logger := flags.SetupLogger(cCtx)

	// Trust score weights: defaults, optionally overridden from YAML.
	weights := signal.DefaultWeights()
	if weightsFile != "" {
		loaded, err := signal.LoadWeights(weightsFile)
		if err != nil {
			logger.Error("Failed to load weights file", "err", err, "path", weightsFile)
			return err
		}
		weights = loaded
		logger.Info("Loaded trust score weights", "path", weightsFile)
	}

	engine, err := signal.NewEngine(weights)
	if err != nil {
		logger.Error("Invalid trust score weights", "err", err)
		return err
	}

	reg := registry.New(engine, logger, registry.WithParams(registry.Params{
		MaxNameLength:     maxNameLength,
		ValidateTEEQuotes: validateQuotes,
	}))

	// Evidence storage is optional; without backends the evidence endpoints
	// report unavailable and the registry still serves attestations.
	var evidence interfaces.StorageBackend
	if len(evidenceURIs) > 0 {
		locations := make([]interfaces.StorageBackendLocation, 0, len(evidenceURIs))
		for _, uri := range evidenceURIs {
			location, err := interfaces.NewStorageBackendLocation(uri)
			if err != nil {
				logger.Error("Invalid evidence backend URI", "err", err, "uri", uri)
				return err
			}
			locations = append(locations, location)
		}

		factory := storage.NewStorageBackendFactory(logger)
		evidence, err = factory.CreateMultiBackend(locations)
		if err != nil {
			logger.Error("Failed to create evidence storage", "err", err)
			return err
		}
		logger.Info("Evidence storage configured", "backends", evidence.Name())
	}

	cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
	srv, err := httpserver.New(cfg, httpserver.NewHandler(reg, evidence, logger))
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	srv.RunInBackground()

	exit := make(chan os.Signal, 1)
	ossignal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutting down")
	srv.Shutdown()
	return nil
}
