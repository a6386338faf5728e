package safarixcode

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// NormalizeMarketingVersion turns a package version such as "1.2.0-beta.1"
// or "v2" into the MAJOR.MINOR.PATCH form App Store Connect accepts.
func NormalizeMarketingVersion(v string) (string, error) {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", v, err)
	}
	return fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch()), nil
}
