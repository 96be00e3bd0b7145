// Package suit assembles SUIT firmware-update manifest envelopes as
// CBOR.
//
// All map construction is deterministic: entries are inserted in the
// order prescribed by the manifest wire format, and command sequences
// are flat arrays of alternating key/value pairs.
package suit

import (
	"encoding/binary"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/cbor"
	"github.com/suit-tools/manifest-generator/suit-golang/pkg/payload"
)

// ReportingPolicy selects which outcomes of a command the device
// reports back to the host.
type ReportingPolicy struct {
	RecordSuccess  bool
	RecordFailure  bool
	SysinfoSuccess bool
	SysinfoFailure bool
}

// ReportAll enables every reporting flag.
func ReportAll() ReportingPolicy {
	return ReportingPolicy{
		RecordSuccess:  true,
		RecordFailure:  true,
		SysinfoSuccess: true,
		SysinfoFailure: true,
	}
}

// ReportNone disables every reporting flag.
func ReportNone() ReportingPolicy {
	return ReportingPolicy{}
}

// CBOR packs the policy into its 4-bit flag integer.
func (p ReportingPolicy) CBOR() cbor.Value {
	var bits uint64
	if p.RecordSuccess {
		bits |= 1
	}
	if p.RecordFailure {
		bits |= 1 << 1
	}
	if p.SysinfoSuccess {
		bits |= 1 << 2
	}
	if p.SysinfoFailure {
		bits |= 1 << 3
	}
	return cbor.Uint(bits)
}

type indexKind uint8

const (
	indexSingle indexKind = iota
	indexAll
	indexList
)

// IndexArgument selects which component(s) a set-component-index
// directive targets.
type IndexArgument struct {
	kind   indexKind
	single uint64
	list   []uint64
}

// SingleIndex targets one component.
func SingleIndex(index uint64) IndexArgument {
	return IndexArgument{kind: indexSingle, single: index}
}

// AllIndexes targets every component.
func AllIndexes() IndexArgument {
	return IndexArgument{kind: indexAll}
}

// IndexList targets an explicit set of components.
func IndexList(indexes ...uint64) IndexArgument {
	return IndexArgument{kind: indexList, list: indexes}
}

// CBOR lowers the index argument: a single index is an integer, "all"
// is the boolean true, and a list is an array of integers.
func (a IndexArgument) CBOR() cbor.Value {
	switch a.kind {
	case indexAll:
		return cbor.True()
	case indexList:
		items := make([]cbor.Value, len(a.list))
		for i, index := range a.list {
			items[i] = cbor.Uint(index)
		}
		return cbor.Array(items...)
	default:
		return cbor.Uint(a.single)
	}
}

// ComponentIdentifier names a component by its memory start address.
type ComponentIdentifier uint32

// CBOR lowers the identifier to an array holding the 4-byte big-endian
// address.
func (c ComponentIdentifier) CBOR() cbor.Value {
	address := make([]byte, 4)
	binary.BigEndian.PutUint32(address, uint32(c))
	return cbor.Array(cbor.ByteString(address))
}

// Parameter is one entry of an override-parameters directive.
type Parameter struct {
	key   uint64
	value cbor.Value
}

// ImageDigest sets the expected digest of the component image.
func ImageDigest(digest Digest) Parameter {
	return Parameter{key: parameterImageDigest, value: digest.CBOR()}
}

// ImageSize sets the expected size of the component image in bytes.
func ImageSize(size int) Parameter {
	return Parameter{key: parameterImageSize, value: cbor.Uint(uint64(size))}
}

// ComponentSlot sets the slot the component occupies.
func ComponentSlot(slot uint64) Parameter {
	return Parameter{key: parameterComponentSlot, value: cbor.Uint(slot)}
}

// URI sets the location the payload is fetched from.
func URI(uri string) Parameter {
	return Parameter{key: parameterURI, value: cbor.TextString(uri)}
}

// SourceComponent names the component a copy or swap reads from.
func SourceComponent(source uint64) Parameter {
	return Parameter{key: parameterSourceComponent, value: cbor.Uint(source)}
}

// RunArgs passes raw arguments to a run directive.
func RunArgs(arguments []byte) Parameter {
	return Parameter{key: parameterRunArgs, value: cbor.ByteString(arguments)}
}

// StrictOrder controls whether commands may be reordered.
func StrictOrder(flag bool) Parameter {
	return Parameter{key: parameterStrictOrder, value: cbor.Bool(flag)}
}

// SoftFailure downgrades condition failures to soft failures.
func SoftFailure(flag bool) Parameter {
	return Parameter{key: parameterSoftFailure, value: cbor.Bool(flag)}
}

func parametersCBOR(parameters []Parameter) cbor.Value {
	pairs := make([]cbor.Pair, len(parameters))
	for i, p := range parameters {
		pairs[i] = cbor.Pair{Key: cbor.Uint(p.key), Value: p.value}
	}
	return cbor.Map(pairs...)
}

// Command is one condition or directive in a command sequence.
type Command struct {
	key   uint64
	value cbor.Value
}

// ConditionVendorIdentifier checks the device vendor identifier.
func ConditionVendorIdentifier(policy ReportingPolicy) Command {
	return Command{key: commandConditionVendorIdentifier, value: policy.CBOR()}
}

// ConditionClassIdentifier checks the device class identifier.
func ConditionClassIdentifier(policy ReportingPolicy) Command {
	return Command{key: commandConditionClassIdentifier, value: policy.CBOR()}
}

// ConditionDeviceIdentifier checks the device identifier.
func ConditionDeviceIdentifier(policy ReportingPolicy) Command {
	return Command{key: commandConditionDeviceIdentifier, value: policy.CBOR()}
}

// ConditionImageMatch checks the component image against the expected
// digest.
func ConditionImageMatch(policy ReportingPolicy) Command {
	return Command{key: commandConditionImageMatch, value: policy.CBOR()}
}

// ConditionComponentSlot checks the active component slot.
func ConditionComponentSlot(policy ReportingPolicy) Command {
	return Command{key: commandConditionComponentSlot, value: policy.CBOR()}
}

// ConditionAbort unconditionally aborts the sequence.
func ConditionAbort(policy ReportingPolicy) Command {
	return Command{key: commandConditionAbort, value: policy.CBOR()}
}

// SetComponentIndex selects the component subsequent commands act on.
func SetComponentIndex(index IndexArgument) Command {
	return Command{key: commandDirectiveSetComponentIndex, value: index.CBOR()}
}

// OverrideParameters replaces processing parameters for the current
// component.
func OverrideParameters(parameters ...Parameter) Command {
	return Command{key: commandDirectiveOverrideParameters, value: parametersCBOR(parameters)}
}

// Fetch retrieves the current component's payload.
func Fetch(policy ReportingPolicy) Command {
	return Command{key: commandDirectiveFetch, value: policy.CBOR()}
}

// Copy copies the source component into the current component.
func Copy(policy ReportingPolicy) Command {
	return Command{key: commandDirectiveCopy, value: policy.CBOR()}
}

// Swap exchanges the current component with the source component.
func Swap(policy ReportingPolicy) Command {
	return Command{key: commandDirectiveSwap, value: policy.CBOR()}
}

// Run executes the current component.
func Run(policy ReportingPolicy) Command {
	return Command{key: commandDirectiveRun, value: policy.CBOR()}
}

// commandSequenceCBOR flattens commands into the SUIT wire form: an
// array of alternating key/value pairs, not a map.
func commandSequenceCBOR(commands []Command) cbor.Value {
	items := make([]cbor.Value, 0, 2*len(commands))
	for _, c := range commands {
		items = append(items, cbor.Uint(c.key), c.value)
	}
	return cbor.Array(items...)
}

// Common holds the component list and the command sequence shared by
// all manifest sections.
type Common struct {
	Components     []ComponentIdentifier
	CommonSequence []Command
}

// CBOR lowers the common block. The components entry is always
// present; the common sequence only when set.
func (c Common) CBOR() cbor.Value {
	identifiers := make([]cbor.Value, len(c.Components))
	for i, component := range c.Components {
		identifiers[i] = component.CBOR()
	}

	pairs := []cbor.Pair{
		{Key: cbor.Uint(keyComponents), Value: cbor.Array(identifiers...)},
	}
	if c.CommonSequence != nil {
		pairs = append(pairs, cbor.Pair{
			Key:   cbor.Uint(keyCommonSequence),
			Value: commandSequenceCBOR(c.CommonSequence),
		})
	}

	return cbor.Map(pairs...)
}

// Manifest is the structured update description inside the envelope.
// A nil command sequence omits the corresponding section.
type Manifest struct {
	SequenceNumber uint64

	// ReferenceURI is emitted when non-empty.
	ReferenceURI string

	Common Common

	PayloadFetch []Command
	Install      []Command
	Text         []Command
	Validate     []Command
	Load         []Command
	Run          []Command
}

// CBOR lowers the manifest map in its fixed key order: version,
// sequence number, common, optional reference URI, then the command
// sections.
func (m Manifest) CBOR() cbor.Value {
	pairs := []cbor.Pair{
		{Key: cbor.Uint(keyManifestVersion), Value: cbor.Uint(1)},
		{Key: cbor.Uint(keyManifestSequenceNumber), Value: cbor.Uint(m.SequenceNumber)},
		{Key: cbor.Uint(keyCommon), Value: m.Common.CBOR()},
	}

	if m.ReferenceURI != "" {
		pairs = append(pairs, cbor.Pair{
			Key:   cbor.Uint(keyReferenceURI),
			Value: cbor.TextString(m.ReferenceURI),
		})
	}

	sections := []struct {
		key      uint64
		commands []Command
	}{
		{keyPayloadFetch, m.PayloadFetch},
		{keyInstall, m.Install},
		{keyText, m.Text},
		{keyValidate, m.Validate},
		{keyLoad, m.Load},
		{keyRun, m.Run},
	}
	for _, section := range sections {
		if section.commands == nil {
			continue
		}
		pairs = append(pairs, cbor.Pair{
			Key:   cbor.Uint(section.key),
			Value: commandSequenceCBOR(section.commands),
		})
	}

	return cbor.Map(pairs...)
}

// Envelope bundles the manifest with its integrated payloads.
type Envelope struct {
	Manifest           Manifest
	IntegratedPayloads []payload.Payload

	// AddTag wraps the envelope map in the SUIT envelope CBOR tag.
	AddTag bool
}

// CBOR lowers the envelope: the authentication wrapper placeholder,
// the manifest, then one text-keyed entry per integrated payload.
func (e Envelope) CBOR() cbor.Value {
	pairs := []cbor.Pair{
		// A real implementation would carry a COSE structure here.
		{Key: cbor.Uint(keyAuthenticationWrapper), Value: cbor.Uint(1)},
		{Key: cbor.Uint(keyManifest), Value: e.Manifest.CBOR()},
	}

	for _, p := range e.IntegratedPayloads {
		pairs = append(pairs, cbor.Pair{
			Key:   cbor.TextString(p.URI),
			Value: cbor.ByteString(p.Bytes),
		})
	}

	envelope := cbor.Map(pairs...)
	if e.AddTag {
		return cbor.Tag(EnvelopeTag, envelope)
	}
	return envelope
}

// Encode serializes the envelope to its final byte representation.
func (e Envelope) Encode() []byte {
	return e.CBOR().Encode()
}
