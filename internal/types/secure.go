package types

import "log/slog"

const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString holds a credential such as the portal session token. String and
// MarshalJSON both return a redacted placeholder so the value never reaches a
// log line or a config dump.
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// LogValue keeps slog from printing the raw value when a SecretString is
// passed as an attribute.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redactedPlaceholder)
}

// IsZero reports whether no secret has been configured.
func (s SecretString) IsZero() bool {
	return s == ""
}

// Unmask returns the raw plaintext value. Only the session cookie jar should
// need this.
func (s SecretString) Unmask() string {
	return string(s)
}
