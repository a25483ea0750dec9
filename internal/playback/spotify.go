package playback

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// SpotifyProvider implements Provider on top of the Spotify Web API.
type SpotifyProvider struct {
	client *spotify.Client
}

// NewSpotifyProvider builds a provider from a caller-supplied access token.
// The token is used as-is; refreshing it is the caller's concern.
func NewSpotifyProvider(ctx context.Context, accessToken string) *SpotifyProvider {
	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	return &SpotifyProvider{client: spotify.New(httpClient)}
}

func (p *SpotifyProvider) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	results, err := p.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	if results.Tracks == nil {
		return []Track{}, nil
	}

	tracks := make([]Track, 0, len(results.Tracks.Tracks))
	for _, ft := range results.Tracks.Tracks {
		tracks = append(tracks, fullTrackToTrack(ft))
	}
	return tracks, nil
}

func (p *SpotifyProvider) PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error) {
	items, err := p.client.GetPlaylistItems(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("spotify get playlist %s: %w", playlistID, err)
	}

	tracks := make([]Track, 0, len(items.Items))
	for _, item := range items.Items {
		if item.Track.Track == nil {
			// Episodes and removed tracks come back with a nil track.
			continue
		}
		tracks = append(tracks, fullTrackToTrack(*item.Track.Track))
	}
	return tracks, nil
}

func (p *SpotifyProvider) Play(ctx context.Context, device string, uri string) error {
	opts := &spotify.PlayOptions{URIs: []spotify.URI{spotify.URI(uri)}}
	if device != "" {
		id := spotify.ID(device)
		opts.DeviceID = &id
	}
	if err := p.client.PlayOpt(ctx, opts); err != nil {
		return fmt.Errorf("spotify play %s: %w", uri, err)
	}
	return nil
}

func fullTrackToTrack(ft spotify.FullTrack) Track {
	track := Track{
		ID:         string(ft.ID),
		Name:       ft.Name,
		DurationMs: int(ft.Duration),
		URI:        string(ft.URI),
		Album:      ft.Album.Name,
	}
	if len(ft.Artists) > 0 {
		track.Artist = ft.Artists[0].Name
	}
	if len(ft.Album.Images) > 0 {
		track.AlbumArt = ft.Album.Images[0].URL
	}
	return track
}

// DefaultSearchLimit matches the result count the original web client asks for.
const DefaultSearchLimit = 10
