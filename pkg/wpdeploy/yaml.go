package wpdeploy

import (
	yaml "gopkg.in/yaml.v2"
)

const maskedPassword = "********"

// EnvironmentYAML renders an environment for display with its password
// masked.
func EnvironmentYAML(env Environment) ([]byte, error) {
	if env.DBPassword != "" {
		env.DBPassword = maskedPassword
	}
	return yaml.Marshal(env)
}
