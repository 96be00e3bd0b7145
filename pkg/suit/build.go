package suit

import (
	"fmt"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/payload"
)

// BuildOptions configure envelope assembly.
type BuildOptions struct {
	SequenceNumber  uint64
	DigestAlgorithm Algorithm
	AddTag          bool
}

// BuildEnvelope assembles the standard update envelope for a payload
// list: one component per payload, a validate sequence checking each
// payload's digest and size, a load sequence fetching each payload by
// URI, and a run sequence starting component zero.
func BuildEnvelope(payloads []payload.Payload, opts BuildOptions) (Envelope, error) {
	components := make([]ComponentIdentifier, len(payloads))
	for i, p := range payloads {
		components[i] = ComponentIdentifier(p.StartAddress)
	}

	var validate []Command
	var load []Command
	for i, p := range payloads {
		digest, err := NewDigest(opts.DigestAlgorithm, p.Bytes)
		if err != nil {
			return Envelope{}, fmt.Errorf("failed to digest payload %q: %w", p.URI, err)
		}

		validate = append(validate,
			SetComponentIndex(SingleIndex(uint64(i))),
			OverrideParameters(ImageDigest(digest), ImageSize(p.Size)),
			ConditionImageMatch(ReportAll()),
		)

		load = append(load,
			SetComponentIndex(SingleIndex(uint64(i))),
			OverrideParameters(URI(p.URI)),
			Fetch(ReportAll()),
		)
	}

	run := []Command{
		SetComponentIndex(SingleIndex(0)),
		Run(ReportNone()),
	}

	manifest := Manifest{
		SequenceNumber: opts.SequenceNumber,
		Common: Common{
			Components: components,
		},
		Validate: validate,
		Load:     load,
		Run:      run,
	}

	return Envelope{
		Manifest:           manifest,
		IntegratedPayloads: payloads,
		AddTag:             opts.AddTag,
	}, nil
}
