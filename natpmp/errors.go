package natpmp

import "errors"

var (
	// ErrSocket indicates that the transport socket could not be created or bound.
	ErrSocket = errors.New("natpmp: socket error")

	// ErrConnect indicates that the transport could not connect to the gateway.
	ErrConnect = errors.New("natpmp: connect error")

	// ErrNetworkFailure indicates a send/receive failure, or result code 3.
	ErrNetworkFailure = errors.New("natpmp: network failure")

	// ErrUnsupportedVersion indicates a reply with version != 0, or result code 1.
	ErrUnsupportedVersion = errors.New("natpmp: unsupported version")

	// ErrUnsupportedOpcode indicates an unexpected reply opcode, or result code 5.
	ErrUnsupportedOpcode = errors.New("natpmp: unsupported opcode")

	// ErrNotAuthorized indicates result code 2, mappings are refused by the gateway.
	ErrNotAuthorized = errors.New("natpmp: not authorized")

	// ErrOutOfResources indicates result code 4, the gateway cannot create more mappings.
	ErrOutOfResources = errors.New("natpmp: out of resources")

	// ErrUndefined is returned for any result code this client does not know.
	ErrUndefined = errors.New("natpmp: undefined error")

	// ErrRecvFrom indicates that every receive attempt failed.
	ErrRecvFrom = errors.New("natpmp: recvfrom error")
)

// ResultCodeError maps a nonzero gateway result code to its error.
// It returns nil for ResultSuccess.
func ResultCodeError(code uint16) error {
	switch code {
	case ResultSuccess:
		return nil
	case ResultUnsupportedVersion:
		return ErrUnsupportedVersion
	case ResultNotAuthorized:
		return ErrNotAuthorized
	case ResultNetworkFailure:
		return ErrNetworkFailure
	case ResultOutOfResources:
		return ErrOutOfResources
	case ResultUnsupportedOpcode:
		return ErrUnsupportedOpcode
	default:
		return ErrUndefined
	}
}
