package cli

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/miles/internal/block"
	"github.com/mesh-intelligence/miles/internal/logging"
	"github.com/mesh-intelligence/miles/internal/mileage"
	"github.com/mesh-intelligence/miles/internal/paths"
	"github.com/mesh-intelligence/miles/internal/race"
	"github.com/mesh-intelligence/miles/pkg/sqlite"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// session is an attached record store with the services built on it.
type session struct {
	configDir string
	dataDir   string

	store   types.Cupboard
	log     *zap.Logger
	blocks  *block.Builder
	mileage *mileage.Aggregator
	races   *race.Registry
}

// dirs resolves the config and data directories and reads config.yaml.
func (o *options) dirs() (configDir, dataDir string, cfg configFile, err error) {
	configDir, err = paths.ResolveConfigDir(o.configDir)
	if err != nil {
		return "", "", cfg, fmt.Errorf("resolving config directory: %w", err)
	}
	cfg, err = loadConfig(configDir)
	if err != nil {
		return "", "", cfg, err
	}
	dataDir, err = paths.ResolveDataDir(o.dataDir, cfg.DataDir)
	if err != nil {
		return "", "", cfg, fmt.Errorf("resolving data directory: %w", err)
	}
	return configDir, dataDir, cfg, nil
}

// openSession attaches the record store and wires the services.
// The caller must Close the session.
func (o *options) openSession() (*session, error) {
	configDir, dataDir, cfg, err := o.dirs()
	if err != nil {
		return nil, err
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = filepath.Join(dataDir, paths.LogFileName)
	}
	log, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    logFile,
		Verbose: o.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	store := sqlite.NewBackend(sqlite.WithLogger(log))
	if err := store.Attach(types.Config{Backend: cfg.Backend, DataDir: dataDir}); err != nil {
		return nil, fmt.Errorf("attaching record store: %w", err)
	}

	return &session{
		configDir: configDir,
		dataDir:   dataDir,
		store:     store,
		log:       log,
		blocks:    block.NewBuilder(store, log),
		mileage:   mileage.NewAggregator(store),
		races:     race.NewRegistry(store, log),
	}, nil
}

// Close detaches the store and flushes the logger.
func (s *session) Close() error {
	_ = s.log.Sync()
	return s.store.Detach()
}

// withSession opens a session, runs fn and closes the session.
func (o *options) withSession(fn func(s *session) error) (err error) {
	s, err := o.openSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("detaching record store: %w", cerr)
		}
	}()
	return fn(s)
}
