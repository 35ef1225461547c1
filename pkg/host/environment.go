package host

import (
	"strings"

	"keel/pkg/features"

	"github.com/google/uuid"
)

const (
	EnvironmentDevelopment = "Development"
	EnvironmentStaging     = "Staging"
	EnvironmentProduction  = "Production"
)

// EnvironmentFeature exposes the host Environment through the feature collection.
var EnvironmentFeature = features.NewKey[Environment]("host.environment")

// Environment describes where and as what the host runs.
type Environment struct {
	ApplicationName string
	EnvironmentName string
	ContentRootPath string
	// InstanceID is unique per host instance: 32 lowercase hex characters.
	InstanceID string
}

// NewEnvironment creates an Environment with a fresh instance ID.
func NewEnvironment(applicationName, environmentName, contentRootPath string) Environment {
	return Environment{
		ApplicationName: applicationName,
		EnvironmentName: environmentName,
		ContentRootPath: contentRootPath,
		InstanceID:      newInstanceID(),
	}
}

func newInstanceID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsEnvironment compares the environment name case-insensitively.
func (e Environment) IsEnvironment(name string) bool {
	return strings.EqualFold(e.EnvironmentName, name)
}

func (e Environment) IsDevelopment() bool {
	return e.IsEnvironment(EnvironmentDevelopment)
}

func (e Environment) IsStaging() bool {
	return e.IsEnvironment(EnvironmentStaging)
}

func (e Environment) IsProduction() bool {
	return e.IsEnvironment(EnvironmentProduction)
}
