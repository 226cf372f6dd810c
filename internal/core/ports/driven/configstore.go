package driven

// ConfigStore provides persistent key-value configuration.
// Keys use dotted lowercase form, e.g. "llm.provider", "http.listen".
type ConfigStore interface {
	// Get retrieves a raw value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, "" when absent.
	GetString(key string) string

	// GetInt retrieves an integer value, 0 when absent.
	GetInt(key string) int

	// GetBool retrieves a boolean value, false when absent.
	GetBool(key string) bool

	// Set stores a value under key.
	Set(key string, value any) error

	// Save persists the configuration.
	Save() error
}
