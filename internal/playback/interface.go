package playback

import "context"

// Track is the provider-side view of a playable track.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMs int    `json:"durationMs,omitempty"`
	URI        string `json:"uri"`
	AlbumArt   string `json:"albumArt,omitempty"`
}

// Provider abstracts the external playback service. Implementations are
// constructed per request from a caller-supplied token; the core never
// holds credentials.
type Provider interface {
	// SearchTracks returns up to limit tracks matching the query.
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)

	// PlaylistTracks returns all tracks of the given playlist.
	PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error)

	// Play starts playback of the given URI on the target device.
	// An empty device targets the user's active device.
	Play(ctx context.Context, device string, uri string) error
}
