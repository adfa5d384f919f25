package adapter

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/littlstar/lstar/internal/adapter/source/littlstar"
	"github.com/littlstar/lstar/internal/domain"
)

// License is the descriptor issued to an embedding application, e.g.
//
//	platform = "go"
//	version = "LSOrion"
//	bundle_id = "com.example.viewer"
//	enable_unknown_source_url = false
//	enable_source_url_explicit = "https://staging.littlstar.com/api/v1/"
type License struct {
	Platform                string `toml:"platform"`
	Version                 string `toml:"version"`
	BundleID                string `toml:"bundle_id"`
	EnableUnknownSourceURL  *bool  `toml:"enable_unknown_source_url"` // Absent means allowed
	EnableSourceURLExplicit string `toml:"enable_source_url_explicit"`
}

// LoadLicense reads a license file. The file name must start with the
// bundle ID it declares, e.g. com.example.viewer.key.lic.
func LoadLicense(path string) (*License, error) {
	var lic License
	if _, err := toml.DecodeFile(path, &lic); err != nil {
		return nil, domain.ValidationError("load license", fmt.Errorf("failed to parse license: %w", err))
	}
	if lic.BundleID != "" && !strings.HasPrefix(filepath.Base(path), lic.BundleID) {
		return nil, domain.ValidationError("load license",
			fmt.Errorf("license file %q does not match bundle %q", filepath.Base(path), lic.BundleID))
	}
	return &lic, nil
}

// ValidateBaseURL checks that the license permits talking to baseURL.
// A nil license only permits the default service URL.
func (l *License) ValidateBaseURL(baseURL string) error {
	if baseURL == "" {
		return domain.ValidationError("validate base url", errors.New("base URL is empty"))
	}
	got, err := normalizeURL(baseURL)
	if err != nil {
		return domain.ValidationError("validate base url", err)
	}

	allowed := littlstar.DefaultBaseURL
	if l != nil {
		if l.EnableUnknownSourceURL == nil || *l.EnableUnknownSourceURL {
			return nil
		}
		if l.EnableSourceURLExplicit != "" {
			allowed = l.EnableSourceURLExplicit
		}
	}

	want, err := normalizeURL(allowed)
	if err != nil {
		return domain.ValidationError("validate base url", err)
	}
	if got != want {
		return domain.ValidationError("validate base url", fmt.Errorf("%s: %w", baseURL, domain.ErrBaseURLNotLicensed))
	}
	return nil
}

// normalizeURL lowercases scheme and host and drops trailing slashes
func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}
