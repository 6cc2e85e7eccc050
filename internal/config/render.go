package config

import "sync"

// RenderSettings holds viewer configuration shared between the render loop
// and the streaming loop.
type RenderSettings struct {
	mu             sync.RWMutex
	renderDistance int // in chunks
}

var globalRenderSettings = &RenderSettings{
	renderDistance: 8,
}

// GetRenderDistance returns the current render distance in chunks
func GetRenderDistance() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance
}

// SetRenderDistance sets the render distance in chunks, clamped to 2..32.
func SetRenderDistance(distance int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.renderDistance = min(max(distance, 2), 32)
}

// GetChunkLoadRadius returns the radius of tiles scheduled around the camera.
func GetChunkLoadRadius() int {
	return GetRenderDistance()
}

// GetChunkEvictRadius returns radius for chunk eviction (larger than load radius)
func GetChunkEvictRadius() int {
	return GetRenderDistance() * 2
}
