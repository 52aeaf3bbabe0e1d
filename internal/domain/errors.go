package domain

import (
	"errors"
	"fmt"
)

// ErrHubCommunication marks network and HTTP failures talking to the hub.
// Hub clients wrap their errors with it.
var ErrHubCommunication = errors.New("hub communication failed")

type ErrorKind string

const (
	KindUnsupportedDomain ErrorKind = "UnsupportedDomain"
	KindUnknownDirective  ErrorKind = "UnknownDirective"
	KindValueOutOfRange   ErrorKind = "ValueOutOfRange"
	KindHubCommunication  ErrorKind = "HubCommunication"
	KindHandlerInternal   ErrorKind = "HandlerInternal"
)

var responseNames = map[ErrorKind]string{
	KindUnsupportedDomain: "UnsupportedDomainError",
	KindUnknownDirective:  "UnknownDirectiveError",
	KindValueOutOfRange:   "ValueOutOfRangeError",
	KindHubCommunication:  "HubCommunicationError",
	KindHandlerInternal:   "DriverInternalError",
}

var errorTypes = map[ErrorKind]string{
	KindUnsupportedDomain: "NO_SUCH_ENDPOINT",
	KindUnknownDirective:  "INVALID_DIRECTIVE",
	KindHubCommunication:  "BRIDGE_UNREACHABLE",
	KindHandlerInternal:   "INTERNAL_ERROR",
}

// DirectiveError is the single error type handlers fail with. Kind selects
// the response name; the remaining fields are only meaningful for the kinds
// that set them.
type DirectiveError struct {
	Kind ErrorKind

	Domain    string  // UnsupportedDomain
	Namespace string  // UnknownDirective
	Name      string  // UnknownDirective
	Min       float64 // ValueOutOfRange
	Max       float64 // ValueOutOfRange

	Err error
}

func UnsupportedDomainError(domain string) *DirectiveError {
	return &DirectiveError{Kind: KindUnsupportedDomain, Domain: domain}
}

func UnknownDirectiveError(namespace, name string) *DirectiveError {
	return &DirectiveError{Kind: KindUnknownDirective, Namespace: namespace, Name: name}
}

func ValueOutOfRangeError(min, max float64) *DirectiveError {
	return &DirectiveError{Kind: KindValueOutOfRange, Min: min, Max: max}
}

func HubCommunicationError(err error) *DirectiveError {
	return &DirectiveError{Kind: KindHubCommunication, Err: err}
}

func InternalError(err error) *DirectiveError {
	return &DirectiveError{Kind: KindHandlerInternal, Err: err}
}

func (e *DirectiveError) Error() string {
	switch e.Kind {
	case KindUnsupportedDomain:
		return fmt.Sprintf("unsupported domain %q", e.Domain)
	case KindUnknownDirective:
		return fmt.Sprintf("unknown directive %s.%s", e.Namespace, e.Name)
	case KindValueOutOfRange:
		return fmt.Sprintf("value out of range [%g, %g]", e.Min, e.Max)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// ResponseName is the event header name used when this error is returned.
func (e *DirectiveError) ResponseName() string {
	if name, ok := responseNames[e.Kind]; ok {
		return name
	}
	return responseNames[KindHandlerInternal]
}

// ResponsePayload builds a fresh payload for the error event.
func (e *DirectiveError) ResponsePayload() map[string]any {
	if e.Kind == KindValueOutOfRange {
		return map[string]any{
			"minimumValue": e.Min,
			"maximumValue": e.Max,
		}
	}

	payload := map[string]any{
		"type":    errorTypes[e.Kind],
		"message": e.Error(),
	}
	switch e.Kind {
	case KindUnsupportedDomain:
		payload["domain"] = e.Domain
	case KindUnknownDirective:
		payload["namespace"] = e.Namespace
		payload["name"] = e.Name
	}
	return payload
}

// Classify converts any handler error into a DirectiveError. Errors that
// already are one pass through; hub failures become HubCommunication and
// everything else HandlerInternal.
func Classify(err error) *DirectiveError {
	var de *DirectiveError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, ErrHubCommunication) {
		return HubCommunicationError(err)
	}
	return InternalError(err)
}
