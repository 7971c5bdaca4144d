// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package validator ties keybox parsing, chain validation, trust anchor
// matching, private key checks and revocation lookup into a single report.
//
// An [Engine] is built once from a trust store and a revocation snapshot and
// then shared by every front-end:
//
//	engine, err := validator.New(validator.Config{
//		Anchors:  store,
//		Source:   revocation.NewOracle(version.Version),
//		Snapshot: snapshot,
//	})
//	if err != nil {
//		return err
//	}
//	report, err := engine.ValidateDocument(ctx, data, keybox.Options{})
//
// Broken signatures, unknown roots and revoked serials are findings in the
// returned [Report]; only malformed documents, unparsable certificates and
// caller cancellation are returned as errors.
package validator
