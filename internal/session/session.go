package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/partyjam/partyjam/internal/broadcast"
	"github.com/partyjam/partyjam/internal/playback"
)

// Session is one live listening party: a queue, a DJ, participants, the
// pending-request inbox, and playback state. All mutating operations hold
// the session mutex end to end, so each call either fully commits (state
// change plus broadcast) or leaves the session untouched.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DJ        UserRef   `json:"dj"`
	CreatedAt time.Time `json:"createdAt"`

	mu           sync.Mutex
	participants []*Participant
	queue        *Queue
	ledger       *VoteLedger
	inbox        *RequestInbox
	currentSong  *Song
	songsPlayed  int
	lastActive   time.Time

	hub broadcast.Hub
}

// Snapshot is the full client-facing state of a session, returned by read
// endpoints and joins so clients can reconcile after missed events.
type Snapshot struct {
	ID              string                          `json:"id"`
	Name            string                          `json:"name"`
	DJ              UserRef                         `json:"dj"`
	CreatedAt       time.Time                       `json:"createdAt"`
	Participants    []*Participant                  `json:"participants"`
	Queue           []*Song                         `json:"queue"`
	PendingRequests []*PendingRequest               `json:"pendingRequests"`
	CurrentSong     *Song                           `json:"currentSong"`
	SongsPlayed     int                             `json:"songsPlayed"`
	VoterDirections map[string]map[string]Direction `json:"voterDirections"`
}

func newSession(id, name string, dj UserRef, hub broadcast.Hub) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Name:       name,
		DJ:         dj,
		CreatedAt:  now,
		queue:      NewQueue(),
		ledger:     NewVoteLedger(),
		inbox:      NewRequestInbox(),
		lastActive: now,
		hub:        hub,
	}
}

// seedFromPlaylist fills the initial queue from the provider. Fetch
// failure does not abort session creation: the session degrades to an
// empty queue and the failure is logged.
func (s *Session) seedFromPlaylist(ctx context.Context, provider playback.Provider, playlistID string) {
	tracks, err := provider.PlaylistTracks(ctx, playlistID)
	if err != nil {
		slog.Warn("playlist fetch failed, starting with empty queue",
			"session", s.ID, "playlist", playlistID, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tracks {
		s.queue.Append(SongFromTrack(t))
	}
	slog.Info("seeded queue from playlist", "session", s.ID, "playlist", playlistID, "tracks", len(tracks))
}

func (s *Session) requireDJ(callerID string) error {
	if callerID != s.DJ.UserID {
		return fmt.Errorf("%w: caller %s", ErrNotDJ, callerID)
	}
	return nil
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// LastActive reports when the session last served a call. The registry
// uses it for idle eviction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Join adds the user to the participant set. Joining twice with the same
// userId is a no-op. Returns the snapshot the joiner renders from.
func (s *Session) Join(userID, username string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for _, p := range s.participants {
		if p.UserID == userID {
			return s.snapshotLocked()
		}
	}
	s.participants = append(s.participants, &Participant{
		UserID:   userID,
		Username: username,
		JoinedAt: time.Now(),
	})
	return s.snapshotLocked()
}

// Vote applies the voter's toggle/switch vote to a queued song and
// broadcasts the new count. Voting on a song that is not in the queue
// (pending or unknown) is rejected.
func (s *Session) Vote(songID, voterID string, dir Direction) (VoteUpdatePayload, error) {
	if !dir.Valid() {
		return VoteUpdatePayload{}, fmt.Errorf("%w: vote direction %q", ErrValidation, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	song := s.queue.Find(songID)
	if song == nil {
		return VoteUpdatePayload{}, fmt.Errorf("%w: %s", ErrSongNotFound, songID)
	}

	votes, directions := s.ledger.Apply(song, voterID, dir)
	payload := VoteUpdatePayload{SongID: songID, Votes: votes, VoterDirections: directions}
	s.hub.Emit(s.ID, EventVoteUpdate, payload)
	return payload, nil
}

// RequestSong puts a song in the inbox for DJ approval and announces it.
func (s *Session) RequestSong(track playback.Track, requestedBy UserRef) (*PendingRequest, error) {
	if track.ID == "" || track.URI == "" {
		return nil, fmt.Errorf("%w: song id and uri are required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	req := s.inbox.Submit(SongFromTrack(track), requestedBy)
	s.hub.Emit(s.ID, EventPendingRequestsUpdate, PendingRequestsPayload{PendingRequests: s.inbox.Pending()})
	s.hub.Emit(s.ID, EventNewSongRequest, NewSongRequestPayload{Request: req.clone()})
	return req.clone(), nil
}

// AddSong is the DJ's bypass of the request flow: the song goes straight
// into the queue.
func (s *Session) AddSong(track playback.Track, callerID string) (*Song, error) {
	if track.ID == "" || track.URI == "" {
		return nil, fmt.Errorf("%w: song id and uri are required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireDJ(callerID); err != nil {
		return nil, err
	}

	song := SongFromTrack(track)
	s.queue.Append(song)
	s.hub.Emit(s.ID, EventQueueUpdate, QueueUpdatePayload{Queue: s.queue.Ordered()})
	return song.clone(), nil
}

// ApproveRequest moves a pending request into the queue with its votes
// reset. Approve is strict: a missing request is an error.
func (s *Session) ApproveRequest(songID, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireDJ(callerID); err != nil {
		return err
	}

	req, err := s.inbox.Take(songID)
	if err != nil {
		return fmt.Errorf("%w: %s", err, songID)
	}

	s.ledger.Reset(req.Song)
	s.queue.Append(req.Song)
	s.hub.Emit(s.ID, EventQueueUpdate, QueueUpdatePayload{Queue: s.queue.Ordered()})
	s.hub.Emit(s.ID, EventPendingRequestsUpdate, PendingRequestsPayload{PendingRequests: s.inbox.Pending()})
	return nil
}

// DenyRequest discards a pending request. Deny is tolerant: denying a
// request that is already gone succeeds, so double-deny races are
// harmless.
func (s *Session) DenyRequest(songID, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireDJ(callerID); err != nil {
		return err
	}

	s.inbox.Discard(songID)
	s.hub.Emit(s.ID, EventPendingRequestsUpdate, PendingRequestsPayload{PendingRequests: s.inbox.Pending()})
	return nil
}

// PendingRequests returns the current inbox contents.
func (s *Session) PendingRequests() []*PendingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inbox.Pending()
}

// PlayNext pops the highest-voted song, asks the provider to play it, and
// commits only on provider success. On failure the popped song is
// restored at the end of the queue, so the pop-then-confirm sequence
// appears atomic to observers.
func (s *Session) PlayNext(ctx context.Context, callerID string, provider playback.Provider, device string) (*Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireDJ(callerID); err != nil {
		return nil, err
	}

	next, err := s.queue.PopNext()
	if err != nil {
		return nil, err
	}

	if err := provider.Play(ctx, device, next.URI); err != nil {
		s.queue.RestoreAtEnd(next)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	s.currentSong = next
	s.songsPlayed++
	s.ledger.Forget(next.ID)
	s.hub.Emit(s.ID, EventSongPlayed, SongPlayedPayload{
		CurrentSong: next.clone(),
		Queue:       s.queue.Ordered(),
		SongsPlayed: s.songsPlayed,
	})
	return next.clone(), nil
}

// Snapshot returns the full client-facing state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	participants := make([]*Participant, len(s.participants))
	copy(participants, s.participants)

	directions := make(map[string]map[string]Direction)
	for _, song := range s.queue.songs {
		if m := s.ledger.Directions(song.ID); len(m) > 0 {
			directions[song.ID] = m
		}
	}

	var current *Song
	if s.currentSong != nil {
		current = s.currentSong.clone()
	}

	return Snapshot{
		ID:              s.ID,
		Name:            s.Name,
		DJ:              s.DJ,
		CreatedAt:       s.CreatedAt,
		Participants:    participants,
		Queue:           s.queue.Ordered(),
		PendingRequests: s.inbox.Pending(),
		CurrentSong:     current,
		SongsPlayed:     s.songsPlayed,
		VoterDirections: directions,
	}
}
