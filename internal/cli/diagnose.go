package cli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/suit"
)

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "diagnose <envelope.cbor>",
		Short: "Diagnose generated envelopes with extended diagnostic notation",
		Long: `Produces a markdown summary of a CBOR file including extended
diagnostic notation.

This command recognizes and pretty prints:
  - SUIT envelopes (tagged or untagged)
  - Generic CBOR objects

The output includes:
  - Structure type detection
  - Manifest summary (sequence number, components, payloads)
  - Extended diagnostic notation
  - Hex dumps of binary data`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(args[0], outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// runDiagnose performs the diagnose operation
func runDiagnose(inputFile, outputFile string) error {
	rawBytes, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data interface{}
	if err := cbor.Unmarshal(rawBytes, &data); err != nil {
		return fmt.Errorf("failed to parse CBOR: %w", err)
	}

	report := generateMarkdownReport(data, inputFile, rawBytes)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(report), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("Diagnostic report written to: %s\n", outputFile)
	} else {
		fmt.Print(report)
	}

	return nil
}

// generateMarkdownReport creates a markdown report for a CBOR object
func generateMarkdownReport(data interface{}, filename string, rawBytes []byte) string {
	var buf bytes.Buffer

	buf.WriteString("# CBOR Diagnostic Report\n\n")
	buf.WriteString(fmt.Sprintf("**File:** `%s`\n\n", filename))
	buf.WriteString(fmt.Sprintf("**Size:** %d bytes\n\n", len(rawBytes)))
	buf.WriteString("---\n\n")

	buf.WriteString("## Structure Analysis\n\n")

	if envelope, tagged, ok := asEnvelope(data); ok {
		if tagged {
			buf.WriteString(fmt.Sprintf("**Detected:** SUIT Envelope (tag %d)\n\n", suit.EnvelopeTag))
		} else {
			buf.WriteString("**Detected:** SUIT Envelope (untagged)\n\n")
		}
		buf.WriteString(prettyPrintEnvelope(envelope))
	} else {
		buf.WriteString("**Type:** Generic CBOR object\n\n")
	}

	buf.WriteString("### Extended Diagnostic Notation\n\n")
	buf.WriteString("```cbor-diag\n")
	buf.WriteString(toExtendedDiagnostic(data, 0))
	buf.WriteString("\n```\n\n")

	buf.WriteString("## Raw CBOR Data\n\n")
	buf.WriteString("```\n")
	buf.WriteString(formatHex(rawBytes, 256))
	buf.WriteString("\n```\n\n")

	return buf.String()
}

// asEnvelope detects a SUIT envelope: a map holding an authentication
// wrapper (key 2) and a manifest (key 3), optionally wrapped in the
// envelope tag.
func asEnvelope(data interface{}) (map[interface{}]interface{}, bool, bool) {
	tagged := false

	if tag, ok := data.(cbor.Tag); ok {
		if tag.Number != suit.EnvelopeTag {
			return nil, false, false
		}
		data = tag.Content
		tagged = true
	}

	m, ok := data.(map[interface{}]interface{})
	if !ok {
		return nil, false, false
	}
	if _, hasWrapper := m[uint64(2)]; !hasWrapper {
		return nil, false, false
	}
	if _, hasManifest := m[uint64(3)]; !hasManifest {
		return nil, false, false
	}

	return m, tagged, true
}

// prettyPrintEnvelope formats an envelope summary
func prettyPrintEnvelope(envelope map[interface{}]interface{}) string {
	var buf bytes.Buffer

	buf.WriteString("### Envelope\n\n")
	buf.WriteString("```\n")

	manifest, _ := envelope[uint64(3)].(map[interface{}]interface{})
	if manifest != nil {
		if version, ok := manifest[uint64(1)].(uint64); ok {
			buf.WriteString(fmt.Sprintf("manifest version: %d\n", version))
		}
		if sequence, ok := manifest[uint64(2)].(uint64); ok {
			buf.WriteString(fmt.Sprintf("sequence number:  %d\n", sequence))
		}

		if common, ok := manifest[uint64(3)].(map[interface{}]interface{}); ok {
			if components, ok := common[uint64(2)].([]interface{}); ok {
				buf.WriteString(fmt.Sprintf("components:       %d\n", len(components)))
				for i, component := range components {
					if parts, ok := component.([]interface{}); ok && len(parts) == 1 {
						if address, ok := parts[0].([]byte); ok {
							buf.WriteString(fmt.Sprintf("  [%d] h'%s'\n", i, hex.EncodeToString(address)))
						}
					}
				}
			}
		}

		sections := []struct {
			key  uint64
			name string
		}{
			{8, "payload-fetch"},
			{9, "install"},
			{13, "text"},
			{10, "validate"},
			{11, "load"},
			{12, "run"},
		}
		for _, section := range sections {
			if sequence, ok := manifest[section.key].([]interface{}); ok {
				buf.WriteString(fmt.Sprintf("%-17s %d command(s)\n", section.name+":", len(sequence)/2))
			}
		}
	}

	// Integrated payloads are the text-keyed entries.
	var uris []string
	for key := range envelope {
		if uri, ok := key.(string); ok {
			uris = append(uris, uri)
		}
	}
	sort.Strings(uris)
	for _, uri := range uris {
		if content, ok := envelope[uri].([]byte); ok {
			buf.WriteString(fmt.Sprintf("payload %q: %d bytes\n", uri, len(content)))
		}
	}

	buf.WriteString("```\n\n")

	return buf.String()
}

// toExtendedDiagnostic converts CBOR data to extended diagnostic notation
func toExtendedDiagnostic(value interface{}, indent int) string {
	spaces := ""
	for i := 0; i < indent; i++ {
		spaces += "  "
	}

	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int, int64, uint, uint64:
		return fmt.Sprintf("%v", v)
	case string:
		return fmt.Sprintf("\"%s\"", v)
	case []byte:
		return fmt.Sprintf("h'%s'", hex.EncodeToString(v))
	case cbor.Tag:
		return fmt.Sprintf("%d(%s)", v.Number, toExtendedDiagnostic(v.Content, indent))
	case []interface{}:
		if len(v) == 0 {
			return "[]"
		}
		var buf bytes.Buffer
		buf.WriteString("[\n")
		for i, item := range v {
			buf.WriteString(spaces + "  " + toExtendedDiagnostic(item, indent+1))
			if i < len(v)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString(spaces + "]")
		return buf.String()
	case map[interface{}]interface{}:
		if len(v) == 0 {
			return "{}"
		}
		var buf bytes.Buffer
		buf.WriteString("{\n")
		first := true
		for key, val := range v {
			if !first {
				buf.WriteString(",\n")
			}
			first = false
			keyStr := fmt.Sprintf("%v", key)
			buf.WriteString(fmt.Sprintf("%s  %s: %s", spaces, keyStr, toExtendedDiagnostic(val, indent+1)))
		}
		buf.WriteString("\n" + spaces + "}")
		return buf.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatHex formats bytes as hex with spaces
func formatHex(data []byte, maxBytes int) string {
	if len(data) <= maxBytes {
		return hexWithSpaces(data)
	}
	preview := hexWithSpaces(data[:maxBytes])
	return fmt.Sprintf("%s ... (%d bytes total)", preview, len(data))
}

// hexWithSpaces converts bytes to hex string with spaces
func hexWithSpaces(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for i, b := range data {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(fmt.Sprintf("%02x", b))
	}
	return buf.String()
}
