package session

import (
	"time"

	"github.com/partyjam/partyjam/internal/playback"
)

// Song is a track candidate in a session queue. Votes is derived state:
// it is zero at creation and only the vote ledger moves it.
type Song struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMs int    `json:"durationMs,omitempty"`
	URI        string `json:"uri"`
	AlbumArt   string `json:"albumArt,omitempty"`
	Votes      int    `json:"votes"`
}

// clone returns a value copy. Snapshots and broadcast payloads are
// marshaled outside the session mutex, so they must never alias the live
// queue entries.
func (s *Song) clone() *Song {
	c := *s
	return &c
}

// SongFromTrack converts a provider track into a queue candidate.
func SongFromTrack(t playback.Track) *Song {
	return &Song{
		ID:         t.ID,
		Name:       t.Name,
		Artist:     t.Artist,
		Album:      t.Album,
		DurationMs: t.DurationMs,
		URI:        t.URI,
		AlbumArt:   t.AlbumArt,
	}
}

// UserRef identifies a participant in payloads and requests.
type UserRef struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Participant is a member of a session.
type Participant struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PendingRequest is a song awaiting DJ approval.
type PendingRequest struct {
	Song        *Song   `json:"song"`
	RequestedBy UserRef `json:"requestedBy"`
}

func (r *PendingRequest) clone() *PendingRequest {
	return &PendingRequest{Song: r.Song.clone(), RequestedBy: r.RequestedBy}
}
