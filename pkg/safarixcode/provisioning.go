package safarixcode

import (
	"fmt"
	"strings"
	"time"

	"go.mozilla.org/pkcs7"
	"howett.net/plist"
)

// ProvisioningProfile is the part of a .mobileprovision or
// .provisionprofile payload that decides which team signs the project.
type ProvisioningProfile struct {
	Name                        string                 `plist:"Name"`
	UUID                        string                 `plist:"UUID"`
	TeamName                    string                 `plist:"TeamName"`
	TeamIdentifier              []string               `plist:"TeamIdentifier"`
	ApplicationIdentifierPrefix []string               `plist:"ApplicationIdentifierPrefix"`
	Platform                    []string               `plist:"Platform"`
	Entitlements                map[string]interface{} `plist:"Entitlements"`
	ExpirationDate              time.Time              `plist:"ExpirationDate"`
}

// ParseProvisioningProfile unwraps the CMS (PKCS#7) container and decodes
// its plist payload. The signature is not verified.
func ParseProvisioningProfile(data []byte) (*ProvisioningProfile, error) {
	p7, err := pkcs7.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#7 container: %w", err)
	}

	profile := &ProvisioningProfile{}
	if _, err := plist.Unmarshal(p7.Content, profile); err != nil {
		return nil, fmt.Errorf("failed to parse provisioning profile plist: %w", err)
	}
	return profile, nil
}

// GetTeamID returns the team identifier, falling back to the app id prefix
// that older profiles carry instead.
func (p *ProvisioningProfile) GetTeamID() string {
	for _, ids := range [][]string{p.TeamIdentifier, p.ApplicationIdentifierPrefix} {
		if len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}

// GetApplicationIdentifier returns "<team>.<bundle id pattern>" from the
// entitlements.
func (p *ProvisioningProfile) GetApplicationIdentifier() string {
	for _, key := range []string{"application-identifier", "com.apple.application-identifier"} {
		if id, ok := p.Entitlements[key].(string); ok {
			return id
		}
	}
	return ""
}

// IsExpired reports whether the profile can no longer be used for signing.
func (p *ProvisioningProfile) IsExpired() bool {
	return !p.ExpirationDate.After(time.Now())
}

// Covers reports whether the profile's app id matches bundleID. A trailing
// "*" in the app id matches any suffix.
func (p *ProvisioningProfile) Covers(bundleID string) bool {
	appID := p.GetApplicationIdentifier()
	if appID == "" {
		return false
	}
	pattern := strings.TrimPrefix(appID, p.GetTeamID()+".")
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(bundleID, prefix)
	}
	return pattern == bundleID
}

// SigningTeam returns the team a project signed with this profile must
// use. Expired profiles are rejected since Xcode will not sign with them.
func (p *ProvisioningProfile) SigningTeam() (string, error) {
	if p.IsExpired() {
		return "", fmt.Errorf("provisioning profile %q expired on %s", p.Name, p.ExpirationDate.Format("2006-01-02"))
	}
	teamID := p.GetTeamID()
	if teamID == "" {
		return "", fmt.Errorf("provisioning profile %q has no team identifier", p.Name)
	}
	return teamID, nil
}
