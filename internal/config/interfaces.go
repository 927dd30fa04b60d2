package config

import "context"

// SecretProvider resolves secret references to plaintext values. The loader
// uses it for <NAME>_FILE variables so a session token can live in a file
// instead of the environment.
type SecretProvider interface {
	// Resolve returns the value for each reference it could read. References
	// it could not find are omitted from the map.
	Resolve(ctx context.Context, refs []string) (map[string]string, error)
}
