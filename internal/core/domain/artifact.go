package domain

import (
	"fmt"
	"strings"
)

// =============================================================================
// Artifact Metadata
// =============================================================================

// ArtifactMetadata identifies a build artifact for one deploy call.
// VersionAndVariant is the verbatim string reported by the artifact's
// version capability; it is used as-is for salts, keys and ledger
// entries, never reconstructed from the parsed parts.
type ArtifactMetadata struct {
	Name              string
	VersionAndVariant string
}

// ParseArtifactVersion parses a version string of the form
// "X.Y.Z-Name[-Extra...]" into artifact metadata.
//
// Name is the second hyphen-separated segment only: for
// "0.1.0-Beta-TestContract" the name is "Beta" while the full string
// remains the deployment key. Fewer than two segments is
// ErrInvalidVersionFormat.
func ParseArtifactVersion(version string) (ArtifactMetadata, error) {
	parts := strings.Split(version, "-")
	if len(parts) < 2 {
		return ArtifactMetadata{}, fmt.Errorf("%w: %q", ErrInvalidVersionFormat, version)
	}
	return ArtifactMetadata{
		Name:              parts[1],
		VersionAndVariant: version,
	}, nil
}

// =============================================================================
// Deployment Keys
// =============================================================================

// DeploymentKey derives the ledger and verification key for a deploy
// call: the verbatim version string, or version + "-" + suffix for
// multi-instance deployments of identical code.
func DeploymentKey(versionAndVariant, suffix string) string {
	if suffix == "" {
		return versionAndVariant
	}
	return versionAndVariant + "-" + suffix
}

// =============================================================================
// Deployment Record
// =============================================================================

// DeploymentRecord is the outcome of a single deploy call.
type DeploymentRecord struct {
	Key           string  `json:"key"`
	Address       Address `json:"address"`
	NewlyDeployed bool    `json:"newly_deployed"`
}
