// Package config loads and validates the kernel sizing configuration from
// YAML. All tables are fixed at kernel construction time.
package config
