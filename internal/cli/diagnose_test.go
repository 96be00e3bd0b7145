package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiagnoseCommand(t *testing.T) {
	t.Run("reports generated envelope", func(t *testing.T) {
		dir := t.TempDir()
		input := writeHexFile(t, dir, "app.hex", 0x0100, []byte{0x01, 0x02, 0x03})
		envelope := filepath.Join(dir, "update.suit")

		if err := execute(t, "generate", "--sequence-number", "9", "--output", envelope, input); err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		report := filepath.Join(dir, "report.md")
		if err := execute(t, "diagnose", "--output", report, envelope); err != nil {
			t.Fatalf("diagnose failed: %v", err)
		}

		content, err := os.ReadFile(report)
		if err != nil {
			t.Fatal(err)
		}

		text := string(content)
		for _, want := range []string{
			"SUIT Envelope",
			"sequence number:  9",
			"components:       1",
			`payload "cp:0"`,
		} {
			if !strings.Contains(text, want) {
				t.Errorf("report missing %q", want)
			}
		}
	})

	t.Run("generic cbor object", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plain.cbor")
		// A single unsigned integer.
		if err := os.WriteFile(path, []byte{0x17}, 0644); err != nil {
			t.Fatal(err)
		}

		report := filepath.Join(dir, "report.md")
		if err := execute(t, "diagnose", "--output", report, path); err != nil {
			t.Fatalf("diagnose failed: %v", err)
		}

		content, err := os.ReadFile(report)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "Generic CBOR object") {
			t.Error("generic object not detected")
		}
	})

	t.Run("rejects invalid cbor", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "broken.cbor")
		if err := os.WriteFile(path, []byte{0xff, 0xff}, 0644); err != nil {
			t.Fatal(err)
		}

		if err := execute(t, "diagnose", path); err == nil {
			t.Fatal("expected error for malformed CBOR")
		}
	})
}
