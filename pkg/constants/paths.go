package constants

// Shared route paths.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
	PathRoomWS = "/ws/studio"
)
