// Package instance names the running process in logs.
package instance

import "os"

// ID prefers an explicit FOLIO_INSTANCE_ID, then the platform dyno name, then
// the hostname. It falls back to "local".
func ID() string {
	for _, key := range []string{"FOLIO_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
