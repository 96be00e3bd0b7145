package cli

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suit-tools/manifest-generator/suit-golang/internal/config"
	"github.com/suit-tools/manifest-generator/suit-golang/pkg/journal"
	"github.com/suit-tools/manifest-generator/suit-golang/pkg/payload"
	"github.com/suit-tools/manifest-generator/suit-golang/pkg/suit"
)

type generateOptions struct {
	allowOverwrites bool
	sequenceNumber  uint64
	compress        bool
	fill            uint8
	digestAlgorithm string
	output          string
	noTag           bool
	journalPath     string
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [flags] payload.hex...",
		Short: "Generate a SUIT envelope from Intel-HEX files",
		Long: `Generate a SUIT manifest envelope from Intel-HEX firmware images.

Each input file contributes addressed bytes to one memory image. The
image is split into contiguous segments, gaps inside a segment are
filled with the configured fill byte, and each segment becomes one
integrated payload. The emitted manifest validates every payload by
digest and size, fetches each payload by its envelope URI, and runs
component zero.

Example:
  suitgen generate \
    --sequence-number 3 \
    --digest-algorithm sha256 \
    --output update.suit \
    bootloader.hex application.hex`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args)
		},
	}

	defaults := config.DefaultConfig()

	cmd.Flags().BoolVarP(&opts.allowOverwrites, "allow-overwrites", "a", false, "allow later payloads to overwrite earlier ones without error")
	cmd.Flags().Uint64VarP(&opts.sequenceNumber, "sequence-number", "s", 0, "manifest sequence number")
	cmd.Flags().BoolVarP(&opts.compress, "compress", "c", defaults.Compress, "use payload compression")
	cmd.Flags().Uint8VarP(&opts.fill, "fill", "f", defaults.Fill, "the value that an unwritten byte has in memory")
	cmd.Flags().StringVarP(&opts.digestAlgorithm, "digest-algorithm", "d", defaults.DigestAlgorithm, "algorithm to create payload digests with (sha256, sha384, sha512, shake128, shake256)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.noTag, "no-tag", false, "emit the envelope without the SUIT CBOR tag")
	cmd.Flags().StringVar(&opts.journalPath, "journal", "", "generation journal database (records envelopes, allocates sequence numbers)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions, args []string) error {
	for _, file := range args {
		if ext := filepath.Ext(file); ext != ".hex" {
			if ext == "" {
				return fmt.Errorf("unknown file type for %q; no extension specified", file)
			}
			return fmt.Errorf("unsupported file format %q for %q", ext, file)
		}
	}

	cfg := GetConfig()

	// Flags the user did not set fall back to environment and config
	// file values.
	if !cmd.Flags().Changed("compress") {
		opts.compress = cfg.Compress
	}
	if !cmd.Flags().Changed("fill") {
		opts.fill = cfg.Fill
	}
	if !cmd.Flags().Changed("digest-algorithm") {
		opts.digestAlgorithm = cfg.DigestAlgorithm
	}
	if !cmd.Flags().Changed("journal") {
		opts.journalPath = cfg.Journal
	}

	algorithm, err := suit.ParseAlgorithm(opts.digestAlgorithm)
	if err != nil {
		return err
	}

	payloads, err := payload.FromHexFiles(args, payload.Options{
		Fill:            opts.fill,
		AllowOverwrites: opts.allowOverwrites,
		Compress:        opts.compress,
	})
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Built %d payload(s) from %d file(s)\n", len(payloads), len(args))
		for _, p := range payloads {
			fmt.Fprintf(os.Stderr, "  %s: %d bytes at %#08x\n", p.URI, p.Size, p.StartAddress)
		}
	}

	var journalDB *sql.DB
	sequenceNumber := opts.sequenceNumber
	if opts.journalPath != "" {
		journalDB, err = journal.Open(journal.Options{Path: opts.journalPath})
		if err != nil {
			return err
		}
		defer journalDB.Close()

		if !cmd.Flags().Changed("sequence-number") {
			sequenceNumber, err = journal.NextSequence(journalDB)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "Allocated sequence number %d from journal\n", sequenceNumber)
			}
		}
	}

	envelope, err := suit.BuildEnvelope(payloads, suit.BuildOptions{
		SequenceNumber:  sequenceNumber,
		DigestAlgorithm: algorithm,
		AddTag:          !opts.noTag,
	})
	if err != nil {
		return err
	}

	encoded := envelope.Encode()

	if journalDB != nil {
		var payloadBytes int64
		for _, p := range payloads {
			payloadBytes += int64(p.Size)
		}

		envelopeHash := sha256.Sum256(encoded)
		if _, err := journal.RecordEnvelope(journalDB, journal.Entry{
			SequenceNumber:  sequenceNumber,
			DigestAlgorithm: algorithm.String(),
			EnvelopeHash:    hex.EncodeToString(envelopeHash[:]),
			PayloadCount:    len(payloads),
			PayloadBytes:    payloadBytes,
		}); err != nil {
			return err
		}
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, encoded, 0644); err != nil {
			return fmt.Errorf("failed to write envelope: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Envelope written to %s (%d bytes)\n", opts.output, len(encoded))
		}
		return nil
	}

	if _, err := os.Stdout.Write(encoded); err != nil {
		return fmt.Errorf("failed to write envelope to stdout: %w", err)
	}
	return nil
}
