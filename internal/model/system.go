package model

// VersionInfo contains version information for the application.
type VersionInfo struct {
	AppVersion    string `json:"app_version"`
	SchemaVersion int64  `json:"schema_version"`
}
