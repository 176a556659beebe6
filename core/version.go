package core

// Version information for the VenceBem client library
const (
	// Version is the current library version
	Version = "development"

	// APIVersion is the backend API version this client targets
	APIVersion = "v1"
)
