package natpmp

const Version = "v0.1.0"

const (
	// Port is the well-known UDP port a gateway listens on.
	Port = 5351

	// MaxAttempts bounds how many receives ReadResponseOrRetry performs.
	MaxAttempts = 9
)

const (
	protocolVersion = 0

	OpPublicAddress = 0
	OpMapUDP        = 1
	OpMapTCP        = 2
	opReply         = 0x80
)

// Result codes reported by the gateway.
const (
	ResultSuccess            = 0
	ResultUnsupportedVersion = 1
	ResultNotAuthorized      = 2
	ResultNetworkFailure     = 3
	ResultOutOfResources     = 4
	ResultUnsupportedOpcode  = 5
)

const (
	publicAddressRequestSize = 2
	mappingRequestSize       = 12
	publicAddressReplySize   = 12
	mappingReplySize         = 16
)
