package completion

import "os"

// EnvSource looks up environment variables.
type EnvSource interface {
	LookupEnv(key string) (string, bool)
}

// EnvMap is an EnvSource backed by a map.
type EnvMap map[string]string

// LookupEnv implements EnvSource.
func (m EnvMap) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// ProcessEnv is an EnvSource reading the environment of this process.
type ProcessEnv struct{}

// LookupEnv implements EnvSource.
func (ProcessEnv) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Capabilities carries what is known about the live shell session.
type Capabilities struct {
	// Env is the shell's environment as detected from the shell itself.
	// It may be nil when the shell does not report its environment.
	Env EnvSource
}

// lookupEnv prefers the shell environment and falls back to the process
// environment. Empty values count as unset.
func lookupEnv(caps Capabilities, fallback EnvSource, key string) string {
	if caps.Env != nil {
		if v, ok := caps.Env.LookupEnv(key); ok && v != "" {
			return v
		}
	}
	if fallback != nil {
		if v, ok := fallback.LookupEnv(key); ok {
			return v
		}
	}
	return ""
}
