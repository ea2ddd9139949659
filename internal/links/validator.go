package links

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"slices"
	"strings"
)

// DefaultAllowedDomains are the university domains crawled by default.
var DefaultAllowedDomains = []string{
	"ics.uci.edu",
	"cs.uci.edu",
	"informatics.uci.edu",
	"stat.uci.edu",
}

// DefaultDeniedExtensions lists binary, media, archive and document
// extensions that are never crawled.
var DefaultDeniedExtensions = []string{
	"css", "js", "bmp", "gif", "jpg", "jpeg", "ico",
	"png", "tif", "tiff", "mid", "mp2", "mp3", "mp4",
	"wav", "avi", "mov", "mpeg", "ram", "m4v", "mkv", "ogg", "ogv", "pdf",
	"ps", "eps", "tex", "ppt", "pptx", "doc", "docx", "xls", "xlsx", "names",
	"data", "dat", "exe", "bz2", "tar", "msi", "bin", "7z", "psd", "dmg", "iso",
	"epub", "dll", "cnf", "tgz", "sha1",
	"thmx", "mso", "arff", "rtf", "jar", "csv",
	"rm", "smil", "wmv", "swf", "wma", "zip", "rar", "gz",
}

// Validator decides whether a URL is inside the crawl scope.
// It is immutable after construction and safe for concurrent use.
type Validator struct {
	domains []string
	denied  map[string]struct{}
	logger  *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithAllowedDomains replaces the allowed domain list.
func WithAllowedDomains(domains ...string) ValidatorOption {
	return func(v *Validator) {
		v.domains = v.domains[:0]
		for _, d := range domains {
			d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
			if d != "" {
				v.domains = append(v.domains, d)
			}
		}
	}
}

// WithDeniedExtensions adds extensions to the denylist. A leading dot is
// optional.
func WithDeniedExtensions(exts ...string) ValidatorOption {
	return func(v *Validator) {
		for _, ext := range exts {
			ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
			if ext != "" {
				v.denied[ext] = struct{}{}
			}
		}
	}
}

// WithValidatorLogger sets the logger used to report malformed URLs.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a Validator with the default domains and denylist.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		domains: slices.Clone(DefaultAllowedDomains),
		denied:  make(map[string]struct{}, len(DefaultDeniedExtensions)),
	}
	for _, ext := range DefaultDeniedExtensions {
		v.denied[ext] = struct{}{}
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Validate returns nil when raw may be crawled, or the reason it may not.
func (v *Validator) Validate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	return v.ValidateURL(u)
}

// ValidateURL is Validate for an already parsed URL.
func (v *Validator) ValidateURL(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if !v.InScope(u.Hostname()) {
		return fmt.Errorf("%w: %q", ErrDomainNotAllowed, u.Hostname())
	}

	if ext := strings.TrimPrefix(path.Ext(strings.ToLower(u.Path)), "."); ext != "" {
		if _, ok := v.denied[ext]; ok {
			return fmt.Errorf("%w: %q", ErrDeniedExtension, ext)
		}
	}
	return nil
}

// IsValid reports whether raw may be crawled. Malformed URLs are logged and
// reported as invalid.
func (v *Validator) IsValid(raw string) bool {
	err := v.Validate(raw)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrMalformedURL) {
		v.logger.Warn("malformed URL", "url", raw, "error", err)
	} else {
		v.logger.Debug("rejected URL", "url", raw, "reason", err)
	}
	return false
}

// Filter returns the valid URLs of raws, preserving order.
func (v *Validator) Filter(raws []string) []string {
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		if v.IsValid(raw) {
			out = append(out, raw)
		}
	}
	return out
}

// InScope reports whether host equals an allowed domain or is one of its
// subdomains.
func (v *Validator) InScope(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, d := range v.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Domains returns the allowed domains.
func (v *Validator) Domains() []string {
	return slices.Clone(v.domains)
}
