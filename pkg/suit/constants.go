package suit

// EnvelopeTag is the CBOR tag wrapping a SUIT envelope.
const EnvelopeTag = 107

// Envelope map keys.
const (
	keyAuthenticationWrapper = 2
	keyManifest              = 3
)

// Manifest map keys.
const (
	keyManifestVersion        = 1
	keyManifestSequenceNumber = 2
	keyCommon                 = 3
	keyReferenceURI           = 4
	keyPayloadFetch           = 8
	keyInstall                = 9
	keyValidate               = 10
	keyLoad                   = 11
	keyRun                    = 12
	keyText                   = 13
)

// Common map keys.
const (
	keyComponents     = 2
	keyCommonSequence = 4
)

// Command codepoints. The same integer space is shared by conditions
// and directives.
const (
	commandConditionVendorIdentifier = 1
	commandConditionClassIdentifier  = 2
	commandConditionImageMatch       = 3
	commandConditionComponentSlot    = 5
	commandConditionAbort            = 14
	commandConditionDeviceIdentifier = 24

	commandDirectiveSetComponentIndex  = 12
	commandDirectiveTryEach            = 15
	commandDirectiveOverrideParameters = 20
	commandDirectiveFetch              = 21
	commandDirectiveCopy               = 22
	commandDirectiveRun                = 23
	commandDirectiveSwap               = 31
	commandDirectiveRunSequence        = 32
)

// Parameter codepoints.
const (
	parameterImageDigest      = 3
	parameterComponentSlot    = 5
	parameterStrictOrder      = 12
	parameterSoftFailure      = 13
	parameterImageSize        = 14
	parameterURI              = 21
	parameterSourceComponent  = 22
	parameterRunArgs          = 23
	parameterDeviceIdentifier = 24
)

// COSE algorithm codepoints. These encode as negative CBOR integers:
// a codepoint n is emitted as the integer -n.
const (
	coseAlgSHA256   = 16
	coseAlgSHAKE128 = 18
	coseAlgSHA384   = 43
	coseAlgSHA512   = 44
	coseAlgSHAKE256 = 45
)
