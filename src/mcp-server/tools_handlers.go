// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/revocation"
	"github.com/mark3labs/mcp-go/mcp"
)

// errNotKeybox is reported when a tool argument is neither a readable file,
// base64 data nor an XML document.
var errNotKeybox = errors.New("not a valid file path, base64 data or XML document")

// toolHandlers binds tool handlers to the server dependencies.
type toolHandlers struct{ deps *ServerDependencies }

func (h *toolHandlers) limits() keybox.Limits {
	if h.deps.Config != nil {
		return h.deps.Config.Upload
	}
	return keybox.DefaultLimits()
}

// readKeybox resolves a tool argument into document bytes and runs it through
// the admission gate.
//
// A readable file is typed by its extension and content like any upload.
// Inline XML and base64 data are declared as application/xml, so only the
// size limit applies to them.
func (h *toolHandlers) readKeybox(input string) ([]byte, error) {
	limits := h.limits()

	if f, err := os.Open(input); err == nil {
		defer f.Close()

		head := make([]byte, 512)
		n, _ := f.Read(head)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return keybox.Read(f, keybox.DetectContentType(filepath.Base(input), head[:n]), limits)
	}

	var data []byte
	switch trimmed := strings.TrimSpace(input); {
	case strings.HasPrefix(trimmed, "<"):
		data = []byte(trimmed)
	default:
		decoded, err := base64.StdEncoding.DecodeString(trimmed)
		if err != nil {
			return nil, errNotKeybox
		}
		data = decoded
	}
	return keybox.Read(bytes.NewReader(data), "application/xml", limits)
}

// handleValidateKeybox runs the full validation pipeline on a keybox.
//
// Parameters:
//   - ctx: Context for cancellation; it also bounds the revocation fetch
//   - request: MCP tool call request containing the keybox and output options
//
// Returns:
//   - The tool execution result containing the report in the requested format
//   - An error only for protocol level failures; validation problems are tool errors
func (h *toolHandlers) handleValidateKeybox(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("keybox")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("keybox parameter required: %v", err)), nil
	}

	format := request.GetString("format", "text")
	requireKey := request.GetBool("require_private_key", false)
	if h.deps.Config != nil && h.deps.Config.Validation.RequirePrivateKey {
		requireKey = true
	}

	data, err := h.readKeybox(input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read keybox: %v", err)), nil
	}

	report, err := h.deps.Engine.ValidateDocument(ctx, data, keybox.Options{RequirePrivateKey: requireKey})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to validate keybox: %v", err)), nil
	}

	var output string
	switch format {
	case "json":
		out, err := report.JSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode report: %v", err)), nil
		}
		output = string(out)
	case "table":
		output = report.Table()
	default:
		output = report.Text()
	}

	verdict := "FAILED"
	if report.Passed() {
		verdict = "PASSED"
	}

	return mcp.NewToolResultText(fmt.Sprintf("Keybox validation %s\n\n%s", verdict, output)), nil
}

// revocationLookup is the check_revocation result.
type revocationLookup struct {
	Serial    string            `json:"serial"`
	Revoked   bool              `json:"revoked"`
	Entry     *revocation.Entry `json:"entry,omitempty"`
	Source    string            `json:"source"`
	Fallback  bool              `json:"usedFallbackRevocationSource"`
	ListSize  int               `json:"listSize"`
	FetchedAt string            `json:"fetchedAt,omitempty"`
}

// handleCheckRevocation looks a single serial number up on the status list.
func (h *toolHandlers) handleCheckRevocation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	serial, err := request.RequireString("serial")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("serial parameter required: %v", err)), nil
	}

	normalized := revocation.NormalizeSerial(serial)
	if normalized == "" || strings.Trim(normalized, "0123456789abcdef") != "" {
		return mcp.NewToolResultError("serial must be a hexadecimal number"), nil
	}

	list, err := h.deps.Engine.RevocationList(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load revocation list: %v", err)), nil
	}

	result := revocationLookup{
		Serial:   normalized,
		Source:   list.Source,
		Fallback: list.Fallback,
		ListSize: list.Len(),
	}
	if !list.FetchedAt.IsZero() {
		result.FetchedAt = list.FetchedAt.Format(time.RFC3339)
	}
	if entry, ok := list.Lookup(normalized); ok {
		result.Revoked = true
		result.Entry = &entry
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleInspectChain renders the chain of a keybox without judging its root.
// Every certificate is marked with its status on the current revocation list.
func (h *toolHandlers) handleInspectChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("keybox")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("keybox parameter required: %v", err)), nil
	}

	format := request.GetString("format", "table")

	data, err := h.readKeybox(input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read keybox: %v", err)), nil
	}

	bundle, err := keybox.Parse(data, keybox.Options{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse keybox: %v", err)), nil
	}

	ch, err := x509chain.Parse(bundle.CertificatesPEM)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse certificates: %v", err)), nil
	}

	if format == "pem" {
		return mcp.NewToolResultText(string(ch.PEM())), nil
	}

	list, err := h.deps.Engine.RevocationList(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load revocation list: %v", err)), nil
	}

	statuses := revocation.Statuses(list, ch.Certs)
	for _, cert := range ch.Certs {
		serial := x509certs.SerialHex(cert)
		if _, ok := statuses[serial]; !ok {
			statuses[serial] = x509chain.StatusGood
		}
	}

	var output string
	switch format {
	case "json":
		out, err := ch.ToVisualizationJSON(statuses)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode chain: %v", err)), nil
		}
		output = string(out)
	case "tree":
		output = ch.RenderASCIITree(statuses)
	default:
		output = ch.RenderTable(statuses)
	}

	header := fmt.Sprintf("Device ID: %s\nAlgorithm: %s\nCertificates: %d (intermediates: %d)\n\n",
		bundle.DeviceID, bundle.Algorithm, ch.Len(), len(ch.FilterIntermediates()))
	return mcp.NewToolResultText(header + output), nil
}
