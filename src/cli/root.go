// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/H0llyW00dzZ/keybox-checker/src/config"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/validator"
	x509chain "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
	"github.com/spf13/cobra"
)

var (
	// ErrInputFileRequired is returned when no keybox file is given.
	ErrInputFileRequired = errors.New("input keybox file is required (use -f)")

	// ErrUnknownFormat is returned for an unsupported --format value.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrValidationFailed is returned in strict mode when the keybox does not pass.
	ErrValidationFailed = errors.New("keybox did not pass validation")
)

var (
	// OperationPerformed is set once a keybox has been validated.
	OperationPerformed bool
	// OperationPerformedSuccessfully is set once the report has been written.
	OperationPerformedSuccessfully bool
)

// options holds the flags of one invocation.
type options struct {
	inputFile         string
	format            string
	configFile        string
	requirePrivateKey bool
	offline           bool
	strict            bool
}

// Execute runs the root command with the process arguments.
//
// Parameters:
//   - ctx: cancels the revocation fetch and the HTTP server
//   - version: reported by --version and sent in the revocation User-Agent
//   - log: receives progress messages
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewCommand(version, log).ExecuteContext(ctx)
}

// NewCommand builds the root command and its subcommands.
func NewCommand(version string, log logger.Logger) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "keybox-checker -f KEYBOX_XML",
		Short: "Android attestation keybox checker",
		Long: `Checks an Android attestation keybox: the certificate chain, the root of
trust, the private key and Google's attestation revocation list.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execCli(cmd, version, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.inputFile, "file", "f", "", "keybox XML file to check")
	flags.StringVar(&opts.format, "format", "text", "output format: text, json, table or tree")
	flags.BoolVar(&opts.requirePrivateKey, "require-private-key", false, "treat a keybox without PrivateKey as malformed")
	flags.BoolVar(&opts.offline, "offline", false, "use the local revocation snapshot only")
	flags.BoolVar(&opts.strict, "strict", false, "exit with an error when the keybox does not pass")
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "configuration file (.json, .yaml, .yml)")

	rootCmd.AddCommand(newServeCommand(version, log, opts))
	rootCmd.AddCommand(newSnapshotCommand(version, log, opts))
	return rootCmd
}

// execCli reads the input keybox, validates it and writes the report in the
// requested format to the command's output.
func execCli(cmd *cobra.Command, version string, opts *options) error {
	if opts.inputFile == "" {
		return ErrInputFileRequired
	}

	render, err := renderer(opts.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	data, err := readKeybox(opts.inputFile, cfg.Upload)
	if err != nil {
		return err
	}

	engine, err := cfg.NewEngine(version, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	bundle, err := keybox.Parse(data, keybox.Options{RequirePrivateKey: cfg.Validation.RequirePrivateKey})
	if err != nil {
		return err
	}

	report, err := engine.Validate(cmd.Context(), bundle)
	if err != nil {
		return err
	}
	OperationPerformed = true

	out, err := render(report, bundle)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	OperationPerformedSuccessfully = true

	if opts.strict && !report.Passed() {
		return ErrValidationFailed
	}
	return nil
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.offline {
		cfg.Revocation.Offline = true
	}
	if opts.requirePrivateKey {
		cfg.Validation.RequirePrivateKey = true
	}
	return cfg, nil
}

// readKeybox applies the same admission gate as the HTTP API to a local file.
func readKeybox(path string, limits keybox.Limits) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}

	return keybox.Read(f, keybox.DetectContentType(filepath.Base(path), head[:n]), limits)
}

type renderFunc func(*validator.Report, *keybox.Bundle) (string, error)

func renderer(format string) (renderFunc, error) {
	switch format {
	case "text", "":
		return func(r *validator.Report, _ *keybox.Bundle) (string, error) { return r.Text(), nil }, nil
	case "table":
		return func(r *validator.Report, _ *keybox.Bundle) (string, error) { return r.Table(), nil }, nil
	case "json":
		return func(r *validator.Report, _ *keybox.Bundle) (string, error) {
			data, err := r.JSON()
			if err != nil {
				return "", err
			}
			return string(data) + "\n", nil
		}, nil
	case "tree":
		return renderTree, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// renderTree prints the chain as an ASCII tree followed by the findings.
func renderTree(r *validator.Report, b *keybox.Bundle) (string, error) {
	ch, err := x509chain.Parse(b.CertificatesPEM)
	if err != nil {
		return "", err
	}

	statuses := make(map[string]string, len(r.Certificates))
	for _, c := range r.Certificates {
		if c.RevocationStatus != "" {
			statuses[c.SerialNumber] = c.RevocationStatus
		}
	}
	return ch.RenderASCIITree(statuses) + "\n" + r.Text(), nil
}
