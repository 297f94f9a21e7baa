// Package domain reconciles a request origin against the hosts the site is
// expected to be served from, to decide whether auth redirects are safe.
package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Environment is the deployment an origin belongs to.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvStaging     Environment = "staging"
	EnvDevelopment Environment = "development"
	EnvUnknown     Environment = "unknown"
)

// Check names, in the order Validate reports them.
const (
	CheckOriginFormat = "origin_format"
	CheckProtocol     = "protocol"
	CheckHostname     = "hostname"
	CheckSiteURL      = "site_url"
)

const unparsed = "unparsed"

// Config holds the expected production, staging and development hosts.
type Config struct {
	// ProductionDomain is the apex host; the www subdomain is production too.
	ProductionDomain string
	// StagingHosts may use a leading "*." to match any subdomain.
	StagingHosts []string
	// DevelopmentHosts defaults to localhost when nil. An empty, non-nil
	// list trusts no development host at all.
	DevelopmentHosts []string
	// SiteURL is the origin registered with the identity provider.
	// Defaults to https://www.<ProductionDomain>.
	SiteURL      string
	RequireHTTPS bool
}

// Check is one structured pass/fail record.
type Check struct {
	Name     string `json:"name"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
}

// Report is the outcome of validating one origin.
type Report struct {
	Origin      string      `json:"origin"`
	Host        string      `json:"host"`
	Environment Environment `json:"environment"`
	Checks      []Check     `json:"checks"`
	Valid       bool        `json:"valid"`
}

// Mismatches returns the checks that failed.
func (r Report) Mismatches() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Validator is immutable after construction and safe for concurrent use.
type Validator struct {
	production   string
	staging      []string
	development  []string
	siteOrigin   string
	requireHTTPS bool
}

var defaultDevelopmentHosts = []string{"localhost", "127.0.0.1", "::1"}

// NewValidator normalises cfg and returns a Validator.
func NewValidator(cfg Config) (*Validator, error) {
	production := normalizeHost(cfg.ProductionDomain)
	production = strings.TrimPrefix(production, "www.")
	if production == "" {
		return nil, errors.New("production domain is required")
	}

	v := &Validator{
		production:   production,
		requireHTTPS: cfg.RequireHTTPS,
	}

	for _, h := range cfg.StagingHosts {
		if h = normalizeHost(h); h != "" {
			v.staging = append(v.staging, h)
		}
	}

	dev := cfg.DevelopmentHosts
	if dev == nil {
		dev = defaultDevelopmentHosts
	}
	for _, h := range dev {
		if h = normalizeHost(h); h != "" {
			v.development = append(v.development, h)
		}
	}

	site := cfg.SiteURL
	if site == "" {
		site = "https://www." + production
	}
	origin, _, err := parseOrigin(site)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", cfg.SiteURL, err)
	}
	v.siteOrigin = origin

	return v, nil
}

// CanonicalOrigin is the production origin used when a request origin is not trusted.
func (v *Validator) CanonicalOrigin() string {
	return v.siteOrigin
}

// Classify reports which deployment a host belongs to.
func (v *Validator) Classify(host string) Environment {
	host = normalizeHost(host)
	switch {
	case host == "":
		return EnvUnknown
	case host == v.production || host == "www."+v.production:
		return EnvProduction
	case matchAny(host, v.staging):
		return EnvStaging
	case matchAny(host, v.development):
		return EnvDevelopment
	default:
		return EnvUnknown
	}
}

// Validate runs every check against origin and reports each result.
func (v *Validator) Validate(origin string) Report {
	report := Report{Origin: origin, Environment: EnvUnknown}

	normalized, u, err := parseOrigin(origin)
	if err != nil {
		report.Checks = []Check{
			{Name: CheckOriginFormat, Expected: "scheme://host[:port]", Actual: err.Error()},
			{Name: CheckProtocol, Expected: "https", Actual: unparsed},
			{Name: CheckHostname, Expected: v.expectedHosts(), Actual: unparsed},
			{Name: CheckSiteURL, Expected: v.siteOrigin, Actual: unparsed},
		}
		return report
	}

	host := u.Hostname()
	env := v.Classify(host)
	report.Host = host
	report.Environment = env

	report.Checks = append(report.Checks, Check{
		Name: CheckOriginFormat, Expected: "scheme://host[:port]", Actual: normalized, Passed: true,
	})

	expectedScheme := "https"
	schemeOK := u.Scheme == "https"
	if env == EnvDevelopment || !v.requireHTTPS {
		expectedScheme = "http or https"
		schemeOK = u.Scheme == "https" || u.Scheme == "http"
	}
	report.Checks = append(report.Checks, Check{
		Name: CheckProtocol, Expected: expectedScheme, Actual: u.Scheme, Passed: schemeOK,
	})

	report.Checks = append(report.Checks, Check{
		Name: CheckHostname, Expected: v.expectedHosts(), Actual: host, Passed: env != EnvUnknown,
	})

	siteCheck := Check{Name: CheckSiteURL, Expected: v.siteOrigin, Actual: normalized, Passed: true}
	if env == EnvProduction {
		siteCheck.Passed = normalized == v.siteOrigin
	}
	report.Checks = append(report.Checks, siteCheck)

	report.Valid = true
	for _, c := range report.Checks {
		if !c.Passed {
			report.Valid = false
			break
		}
	}
	return report
}

// IsSafeRedirect reports whether auth redirects back to origin may be issued.
func (v *Validator) IsSafeRedirect(origin string) bool {
	return v.Validate(origin).Valid
}

// IsSecureTransport reports whether origin is served over https, or is a
// development host where plain http is acceptable.
func (v *Validator) IsSecureTransport(origin string) bool {
	_, u, err := parseOrigin(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	return v.Classify(u.Hostname()) == EnvDevelopment
}

// RedirectURL joins path onto origin when origin is trusted and onto the
// canonical production origin otherwise.
func (v *Validator) RedirectURL(origin, path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if normalized, _, err := parseOrigin(origin); err == nil && v.IsSafeRedirect(origin) {
		return normalized + path
	}
	return v.siteOrigin + path
}

// IsAllowedReturnURL reports whether rawURL is absolute and points at a trusted origin.
func (v *Validator) IsAllowedReturnURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" || u.User != nil {
		return false
	}
	return v.IsSafeRedirect(u.Scheme + "://" + u.Host)
}

// AllowedOrigins lists the explicit trusted origins, for seeding CORS.
// Wildcard staging hosts are not expanded.
func (v *Validator) AllowedOrigins() []string {
	origins := []string{"https://" + v.production, "https://www." + v.production}
	if v.siteOrigin != origins[0] && v.siteOrigin != origins[1] {
		origins = append(origins, v.siteOrigin)
	}
	for _, h := range v.staging {
		if !strings.HasPrefix(h, "*.") {
			origins = append(origins, "https://"+h)
		}
	}
	return origins
}

func (v *Validator) expectedHosts() string {
	hosts := []string{v.production, "www." + v.production}
	hosts = append(hosts, v.staging...)
	hosts = append(hosts, v.development...)
	return strings.Join(hosts, ", ")
}

// OriginFromURL reduces an absolute URL such as a Referer to its origin.
// It returns "" when rawURL has no scheme or host.
func OriginFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// parseOrigin accepts scheme://host[:port] with an optional trailing slash
// and returns it lower-cased without the slash.
func parseOrigin(raw string) (string, *url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, errors.New("empty origin")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("malformed origin: %w", err)
	}
	switch {
	case u.Scheme == "" || u.Host == "":
		return "", nil, errors.New("origin must be absolute")
	case u.User != nil:
		return "", nil, errors.New("origin must not carry credentials")
	case u.Path != "" && u.Path != "/":
		return "", nil, errors.New("origin must not have a path")
	case u.RawQuery != "" || u.Fragment != "" || u.ForceQuery:
		return "", nil, errors.New("origin must not have a query or fragment")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Hostname() == "" {
		return "", nil, errors.New("origin has no host")
	}
	return u.Scheme + "://" + u.Host, u, nil
}

// normalizeHost lower-cases h and strips any scheme, port and trailing dot.
func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	h = strings.TrimSuffix(h, "/")
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	h = strings.TrimPrefix(strings.TrimSuffix(h, "]"), "[")
	return strings.TrimSuffix(h, ".")
}

func matchAny(host string, patterns []string) bool {
	for _, p := range patterns {
		if suffix, ok := strings.CutPrefix(p, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == p {
			return true
		}
	}
	return false
}
