package links

import "errors"

var (
	// ErrMalformedURL indicates a URL that could not be parsed.
	ErrMalformedURL = errors.New("malformed URL")

	// ErrUnsupportedScheme indicates a scheme other than http or https.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrDomainNotAllowed indicates a host outside the allowed domains.
	ErrDomainNotAllowed = errors.New("domain not allowed")

	// ErrDeniedExtension indicates a path ending in a denied file extension.
	ErrDeniedExtension = errors.New("denied file extension")
)
