package instance

import "os"

// GetID returns the process instance identifier used in logs. It prefers an
// explicit PHOTOALBUM_INSTANCE_ID, then platform-provided names.
func GetID() string {
	for _, key := range []string{"PHOTOALBUM_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
