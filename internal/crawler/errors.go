package crawler

import "errors"

var (
	// ErrUnsupportedContent indicates a response whose content type has no
	// text to extract.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrNoSeeds indicates a crawl started without any usable seed URL.
	ErrNoSeeds = errors.New("no valid seed URLs")
)
