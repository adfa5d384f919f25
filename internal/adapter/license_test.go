package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLicense(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadLicense(t *testing.T) {
	path := writeLicense(t, "com.example.viewer.key.lic", `
platform = "go"
version = "LSOrion"
bundle_id = "com.example.viewer"
enable_unknown_source_url = false
enable_source_url_explicit = "https://staging.littlstar.com/api/v1"
`)
	lic, err := LoadLicense(path)
	require.NoError(t, err)
	assert.Equal(t, "go", lic.Platform)
	assert.Equal(t, "com.example.viewer", lic.BundleID)
	require.NotNil(t, lic.EnableUnknownSourceURL)
	assert.False(t, *lic.EnableUnknownSourceURL)

	t.Run("bundle mismatch", func(t *testing.T) {
		path := writeLicense(t, "other.key.lic", `bundle_id = "com.example.viewer"`)
		_, err := LoadLicense(path)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("bad toml", func(t *testing.T) {
		path := writeLicense(t, "x.lic", `platform = `)
		_, err := LoadLicense(path)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestValidateBaseURL(t *testing.T) {
	off, on := false, true
	explicit := &License{EnableUnknownSourceURL: &off, EnableSourceURLExplicit: "https://staging.littlstar.com/api/v1"}

	cases := []struct {
		name    string
		lic     *License
		url     string
		allowed bool
	}{
		{"no license, default url", nil, "https://littlstar.com/api/v1/", true},
		{"no license, default url without slash", nil, "HTTPS://LittlStar.com/api/v1", true},
		{"no license, other url", nil, "https://example.com/api/v1/", false},
		{"unknown urls enabled", &License{EnableUnknownSourceURL: &on}, "https://example.com/api", true},
		{"field absent", &License{}, "https://example.com/api", true},
		{"explicit match", explicit, "https://staging.littlstar.com/api/v1/", true},
		{"explicit mismatch", explicit, "https://littlstar.com/api/v1/", false},
		{"not a url", nil, "littlstar", false},
		{"empty", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.lic.ValidateBaseURL(tc.url)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}

	err := explicit.ValidateBaseURL("https://littlstar.com/api/v1/")
	assert.ErrorIs(t, err, domain.ErrBaseURLNotLicensed)
}
