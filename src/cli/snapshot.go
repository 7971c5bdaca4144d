// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/revocation"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
	"github.com/spf13/cobra"
)

// newSnapshotCommand fetches the live status list and writes it in the
// format the fallback snapshot is loaded from.
func newSnapshotCommand(version string, log logger.Logger, root *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Download the revocation list as a fallback snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			oracle := revocation.NewOracle(version)
			oracle.URL = cfg.Revocation.URL
			oracle.HTTPConfig.Timeout = cfg.RevocationTimeout()
			oracle.HTTPConfig.UserAgent = cfg.Revocation.UserAgent

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RevocationTimeout())
			defer cancel()

			OperationPerformed = true
			list, err := oracle.Fetch(ctx)
			if err != nil {
				return err
			}

			data, err := list.MarshalSnapshot()
			if err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}

			if output == "" {
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return err
				}
			} else {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("failed to write snapshot: %w", err)
				}
				log.Printf("Wrote %d revocation entries to %s", list.Len(), output)
			}

			OperationPerformedSuccessfully = true
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
