package retry

import (
	"context"
	"errors"
	"net"
)

// Kind is the diagnostic class of a failed network operation.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindDNS
	KindStatus
	KindTransport
)

// String returns a short human-readable description of the kind.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "request timed out"
	case KindDNS:
		return "could not resolve host"
	case KindStatus:
		return "unexpected response status"
	case KindTransport:
		return "network error"
	default:
		return "error"
	}
}

// statusCoder is implemented by HTTP status errors.
type statusCoder interface {
	StatusCode() int
}

// Classify reports which kind of failure err is. DNS failures are checked
// before timeouts because a resolver timeout is still a resolution problem.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return KindStatus
	}

	return KindTransport
}
