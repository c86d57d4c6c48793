// Package config loads forkd configuration from YAML.
//
// Values of the form ${VAR} are expanded from the environment before
// parsing. LoadAndValidate applies defaults and rejects incomplete configs.
package config
