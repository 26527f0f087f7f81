package main

import (
	"fmt"
	"os"

	"github.com/chazu/incr/config"
	"github.com/chazu/incr/defs"
	"github.com/chazu/incr/interp"
	"github.com/chazu/incr/oo"
	"github.com/chazu/incr/store"
)

// env is a runtime with its configuration, definitions and store.
type env struct {
	cfg     *config.Config
	in      *interp.Interp
	rt      *oo.Runtime
	store   *store.Store
	applied map[string]int
	order   []string
}

// setup loads incr.toml, configures logging, creates the runtime and
// applies definition files. The store is opened when it already exists
// or when create is set.
func setup(opts *cliOptions, create bool) (*env, error) {
	cfg, err := config.FindAndLoad(opts.configDir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	lc := cfg.Log
	if opts.verbose && lc.Verbosity < 2 {
		lc.Verbosity = 2
	}
	config.ConfigureLogging(lc)

	in := interp.New()
	rt, err := oo.New(in, cfg.RuntimeConfig())
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, in: in, rt: rt, applied: make(map[string]int)}

	if path := cfg.StorePath(); path != "" && !opts.noStore {
		if _, statErr := os.Stat(path); statErr == nil || create {
			st, err := store.Open(path)
			if err != nil {
				return nil, err
			}
			e.store = st
			if cfg.Runtime.Autoload {
				store.NewAutoloader(st, rt).Install()
			}
		}
	}

	files := append(cfg.DefsPaths(), opts.defs...)
	for _, path := range files {
		if _, err := e.load(path); err != nil {
			e.close()
			return nil, err
		}
	}
	return e, nil
}

// load applies one definitions file and returns the number of classes
// it defined.
func (e *env) load(path string) (int, error) {
	f, err := defs.LoadFile(path)
	if err != nil {
		return 0, err
	}
	classes, err := defs.Apply(e.rt, f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", f.Path, err)
	}
	e.applied[f.Path] = len(classes)
	e.order = append(e.order, f.Path)
	log.Infof("applied %d classes from %s", len(classes), f.Path)
	return len(classes), nil
}

func (e *env) close() {
	if err := e.rt.Close(); err != nil {
		log.Warningf("closing runtime: %s", err)
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Warningf("closing store: %s", err)
		}
	}
}
