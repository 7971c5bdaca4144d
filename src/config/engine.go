// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/validator"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/anchors"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/revocation"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
)

// NewEngine loads the trust anchors and the revocation snapshot and returns a
// validation engine wired to them.
//
// Missing or unparsable anchor files, a configuration without any anchor and
// an unreadable snapshot are all returned as errors; the binaries refuse to
// start on any of them.
//
// Parameters:
//   - version: Application version for the revocation User-Agent
//   - m: Metrics to record into; nil disables metrics
//   - log: Logger for fallback notices; nil discards them
func (c *Config) NewEngine(version string, m *metrics.Metrics, log logger.Logger) (*validator.Engine, error) {
	fsys := c.FS()

	store, err := anchors.Load(fsys, c.Resources.Anchors)
	if err != nil {
		return nil, err
	}

	snapshot, err := revocation.LoadSnapshot(fsys, c.Resources.Snapshot)
	if err != nil {
		return nil, err
	}

	cfg := validator.Config{
		Anchors:           store,
		Snapshot:          snapshot,
		RevocationTimeout: c.RevocationTimeout(),
		MaxSnapshotAge:    c.MaxSnapshotAge(),
		Metrics:           m,
		Logger:            log,
	}

	if !c.Revocation.Offline {
		oracle := revocation.NewOracle(version)
		oracle.URL = c.Revocation.URL
		oracle.HTTPConfig.Timeout = c.RevocationTimeout()
		oracle.HTTPConfig.UserAgent = c.Revocation.UserAgent
		cfg.Source = oracle
	}

	return validator.New(cfg)
}
