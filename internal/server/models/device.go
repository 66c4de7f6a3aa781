package models

// DeviceInfo describes the client that opened a session.
type DeviceInfo struct {
	Browser  string
	OS       string
	Platform string
	Source   string
}

// Describe renders the last-login descriptor, e.g. "Firefox on Linux".
func (d DeviceInfo) Describe() string {
	return orUnknown(d.Browser) + " on " + orUnknown(d.OS)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
