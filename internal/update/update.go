// Package update checks GitHub releases for a newer oi build.
package update

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"
)

const (
	// DefaultGitHubReleasesURL is the default URL for checking releases.
	DefaultGitHubReleasesURL = "https://api.github.com/repos/osint-industries/oi-cli/releases/latest"
	CheckTimeout             = 5 * time.Second

	// EnvNoUpdateCheck disables the check when set to any non-empty value.
	EnvNoUpdateCheck = "OI_NO_UPDATE_CHECK"

	maxReleaseBody = 1 << 20
)

// GitHubReleasesURL is the URL to check for releases. Can be overridden in tests.
var GitHubReleasesURL = DefaultGitHubReleasesURL

// Release is the subset of a GitHub release the check reads.
type Release struct {
	TagName    string
	HTMLURL    string
	Prerelease bool
}

type CheckResult struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateURL       string `json:"update_url"`
	UpdateAvailable bool   `json:"update_available"`
}

// CheckForUpdate checks if a newer version is available.
// Returns nil if the check fails or is disabled; it never blocks the CLI for
// longer than CheckTimeout.
func CheckForUpdate(ctx context.Context, currentVersion string) *CheckResult {
	if currentVersion == "dev" || currentVersion == "" {
		return nil
	}
	if os.Getenv(EnvNoUpdateCheck) != "" {
		return nil
	}

	release, ok := fetchLatest(ctx)
	if !ok || release.Prerelease {
		return nil
	}

	current := normalizeVersion(currentVersion)
	latest := normalizeVersion(release.TagName)

	result := &CheckResult{
		CurrentVersion: currentVersion,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}
	if semver.IsValid(current) && semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}
	return result
}

func fetchLatest(ctx context.Context) (Release, bool) {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GitHubReleasesURL, nil)
	if err != nil {
		return Release{}, false
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Release{}, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Release{}, false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReleaseBody))
	if err != nil || !gjson.ValidBytes(body) {
		return Release{}, false
	}

	fields := gjson.GetManyBytes(body, "tag_name", "html_url", "prerelease")
	release := Release{
		TagName:    fields[0].String(),
		HTMLURL:    fields[1].String(),
		Prerelease: fields[2].Bool(),
	}
	if release.TagName == "" {
		return Release{}, false
	}
	return release, true
}

func normalizeVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
