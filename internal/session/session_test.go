package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyjam/partyjam/internal/playback"
)

// recordingHub captures emitted events for assertions.
type recordingHub struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	sessionID string
	event     string
	payload   any
}

func (h *recordingHub) Emit(sessionID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, emittedEvent{sessionID, event, payload})
}

func (h *recordingHub) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.events))
	for i, e := range h.events {
		names[i] = e.event
	}
	return names
}

func (h *recordingHub) payloadsFor(event string) []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []any
	for _, e := range h.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (h *recordingHub) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}

// fakeProvider implements playback.Provider in memory.
type fakeProvider struct {
	playlists   map[string][]playback.Track
	playlistErr error
	playErr     error
	played      []string
}

func (f *fakeProvider) SearchTracks(ctx context.Context, query string, limit int) ([]playback.Track, error) {
	return nil, nil
}

func (f *fakeProvider) PlaylistTracks(ctx context.Context, playlistID string) ([]playback.Track, error) {
	if f.playlistErr != nil {
		return nil, f.playlistErr
	}
	return f.playlists[playlistID], nil
}

func (f *fakeProvider) Play(ctx context.Context, device, uri string) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.played = append(f.played, uri)
	return nil
}

func track(id string) playback.Track {
	return playback.Track{ID: id, Name: "Song " + id, Artist: "Artist", URI: "spotify:track:" + id}
}

func newTestSession(t *testing.T, hub *recordingHub) *Session {
	t.Helper()
	reg := NewRegistry(hub)
	sess, err := reg.Create(context.Background(), "Test Session", UserRef{UserID: "dj", Username: "DJ"}, "", nil)
	require.NoError(t, err)
	return sess
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)

	snap := sess.Join("u2", "bob")
	assert.Len(t, snap.Participants, 1)

	snap = sess.Join("u2", "bob")
	assert.Len(t, snap.Participants, 1)

	snap = sess.Join("u3", "carol")
	assert.Len(t, snap.Participants, 2)
}

func TestVoteOnQueuedSong(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("s1"), "dj")
	require.NoError(t, err)
	hub.reset()

	update, err := sess.Vote("s1", "u2", VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, update.Votes)
	assert.Equal(t, map[string]Direction{"u2": VoteUp}, update.VoterDirections)
	assert.Equal(t, []string{EventVoteUpdate}, hub.names())
}

func TestVoteOnPendingSongRejected(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.RequestSong(track("s1"), UserRef{UserID: "u2", Username: "bob"})
	require.NoError(t, err)
	hub.reset()

	// The song is pending, not queued; voting must fail and not broadcast.
	_, err = sess.Vote("s1", "u2", VoteUp)
	assert.ErrorIs(t, err, ErrSongNotFound)
	assert.Empty(t, hub.names())
}

func TestVoteInvalidDirection(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("s1"), "dj")
	require.NoError(t, err)

	_, err = sess.Vote("s1", "u2", Direction("maybe"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddSongRequiresDJ(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	hub.reset()

	_, err := sess.AddSong(track("s1"), "u2")
	assert.ErrorIs(t, err, ErrNotDJ)
	assert.Empty(t, hub.names())
	assert.Empty(t, sess.Snapshot().Queue)
}

func TestRequestSongBroadcasts(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	hub.reset()

	_, err := sess.RequestSong(track("s1"), UserRef{UserID: "u2", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{EventPendingRequestsUpdate, EventNewSongRequest}, hub.names())
}

func TestApproveRequestMovesToQueueWithVotesReset(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.RequestSong(track("s1"), UserRef{UserID: "u2", Username: "bob"})
	require.NoError(t, err)
	hub.reset()

	require.NoError(t, sess.ApproveRequest("s1", "dj"))

	snap := sess.Snapshot()
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, "s1", snap.Queue[0].ID)
	assert.Equal(t, 0, snap.Queue[0].Votes)
	assert.Empty(t, snap.PendingRequests)
	assert.Equal(t, []string{EventQueueUpdate, EventPendingRequestsUpdate}, hub.names())
}

func TestApproveRequestStrictness(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	hub.reset()

	err := sess.ApproveRequest("missing", "dj")
	assert.ErrorIs(t, err, ErrRequestNotFound)
	assert.Empty(t, hub.names())

	snap := sess.Snapshot()
	assert.Empty(t, snap.Queue)
	assert.Empty(t, snap.PendingRequests)
}

func TestApproveRequestRequiresDJ(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.RequestSong(track("s1"), UserRef{UserID: "u2", Username: "bob"})
	require.NoError(t, err)

	err = sess.ApproveRequest("s1", "u2")
	assert.ErrorIs(t, err, ErrNotDJ)
	assert.Len(t, sess.PendingRequests(), 1)
}

func TestDenyRequestTolerant(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.RequestSong(track("s1"), UserRef{UserID: "u2", Username: "bob"})
	require.NoError(t, err)

	require.NoError(t, sess.DenyRequest("s1", "dj"))
	assert.Empty(t, sess.PendingRequests())

	// Double-deny reports success.
	require.NoError(t, sess.DenyRequest("s1", "dj"))

	// But a non-DJ still cannot deny.
	assert.ErrorIs(t, sess.DenyRequest("s1", "u2"), ErrNotDJ)
}

func TestPlayNextCommitsOnProviderSuccess(t *testing.T) {
	hub := &recordingHub{}
	provider := &fakeProvider{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("low"), "dj")
	require.NoError(t, err)
	_, err = sess.AddSong(track("high"), "dj")
	require.NoError(t, err)
	_, err = sess.Vote("high", "u2", VoteUp)
	require.NoError(t, err)
	hub.reset()

	song, err := sess.PlayNext(context.Background(), "dj", provider, "")
	require.NoError(t, err)
	assert.Equal(t, "high", song.ID)
	assert.Equal(t, []string{"spotify:track:high"}, provider.played)

	snap := sess.Snapshot()
	assert.Equal(t, "high", snap.CurrentSong.ID)
	assert.Equal(t, 1, snap.SongsPlayed)
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, "low", snap.Queue[0].ID)
	assert.Equal(t, []string{EventSongPlayed}, hub.names())
}

func TestPlayNextProviderFailureRestoresSong(t *testing.T) {
	hub := &recordingHub{}
	provider := &fakeProvider{playErr: errors.New("no active device")}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("a"), "dj")
	require.NoError(t, err)
	_, err = sess.AddSong(track("b"), "dj")
	require.NoError(t, err)
	hub.reset()

	_, err = sess.PlayNext(context.Background(), "dj", provider, "")
	assert.ErrorIs(t, err, ErrProvider)
	assert.Empty(t, hub.names())

	snap := sess.Snapshot()
	assert.Nil(t, snap.CurrentSong)
	assert.Equal(t, 0, snap.SongsPlayed)
	// The popped song is restored at the end, not its original position.
	require.Len(t, snap.Queue, 2)
	assert.Equal(t, "b", snap.Queue[0].ID)
	assert.Equal(t, "a", snap.Queue[1].ID)
}

func TestPlayNextEmptyQueue(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	hub.reset()

	_, err := sess.PlayNext(context.Background(), "dj", &fakeProvider{}, "")
	assert.ErrorIs(t, err, ErrEmptyQueue)
	assert.Empty(t, hub.names())
}

func TestPlayNextRequiresDJ(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("a"), "dj")
	require.NoError(t, err)

	_, err = sess.PlayNext(context.Background(), "u2", &fakeProvider{}, "")
	assert.ErrorIs(t, err, ErrNotDJ)
	assert.Len(t, sess.Snapshot().Queue, 1)
}

func TestFridayJamScenario(t *testing.T) {
	// create -> join -> request -> approve -> vote -> play next
	hub := &recordingHub{}
	reg := NewRegistry(hub)
	sess, err := reg.Create(context.Background(), "Friday Jam", UserRef{UserID: "u1", Username: "dj-dan"}, "", nil)
	require.NoError(t, err)

	sess.Join("u2", "bob")

	_, err = sess.RequestSong(track("S1"), UserRef{UserID: "u2", Username: "bob"})
	require.NoError(t, err)
	require.NoError(t, sess.ApproveRequest("S1", "u1"))

	snap := sess.Snapshot()
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, 0, snap.Queue[0].Votes)

	update, err := sess.Vote("S1", "u2", VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, update.Votes)

	provider := &fakeProvider{}
	song, err := sess.PlayNext(context.Background(), "u1", provider, "")
	require.NoError(t, err)
	assert.Equal(t, "S1", song.ID)

	snap = sess.Snapshot()
	assert.Equal(t, "S1", snap.CurrentSong.ID)
	assert.Equal(t, 1, snap.SongsPlayed)
	assert.Empty(t, snap.Queue)
}

func TestSnapshotIsPointInTimeCopy(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("s1"), "dj")
	require.NoError(t, err)

	snap := sess.Snapshot()
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, 0, snap.Queue[0].Votes)

	_, err = sess.Vote("s1", "u2", VoteUp)
	require.NoError(t, err)

	// The held snapshot does not see the later vote.
	assert.Equal(t, 0, snap.Queue[0].Votes)
	assert.Equal(t, 1, sess.Snapshot().Queue[0].Votes)
}

func TestBroadcastPayloadsAreCopies(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("s1"), "dj")
	require.NoError(t, err)

	// Capture the queueUpdate emitted by the add, then let a vote land.
	updates := hub.payloadsFor(EventQueueUpdate)
	require.Len(t, updates, 1)
	queued := updates[0].(QueueUpdatePayload).Queue
	require.Len(t, queued, 1)

	_, err = sess.Vote("s1", "u2", VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, queued[0].Votes,
		"an already-emitted payload must not change when later votes land")

	// Same for a pending-request payload once the song is approved and voted on.
	_, err = sess.RequestSong(track("s2"), UserRef{UserID: "u2", Username: "bob"})
	require.NoError(t, err)
	requests := hub.payloadsFor(EventNewSongRequest)
	require.Len(t, requests, 1)
	pendingSong := requests[0].(NewSongRequestPayload).Request.Song

	require.NoError(t, sess.ApproveRequest("s2", "dj"))
	_, err = sess.Vote("s2", "u2", VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, pendingSong.Votes)
}

func TestSnapshotMarshalDuringVotes(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("s1"), "dj")
	require.NoError(t, err)

	// Marshal held snapshots while votes land concurrently; under the
	// race detector this fails if snapshots alias live queue entries.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			sess.Vote("s1", fmt.Sprintf("voter-%d", i), VoteUp)
		}
	}()

	for {
		snap := sess.Snapshot()
		if _, err := json.Marshal(snap); err != nil {
			t.Errorf("marshal snapshot: %v", err)
			return
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

func TestConcurrentVotesNoDrift(t *testing.T) {
	hub := &recordingHub{}
	sess := newTestSession(t, hub)
	_, err := sess.AddSong(track("s1"), "dj")
	require.NoError(t, err)

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			voter := fmt.Sprintf("voter-%d", n)
			// Each voter votes up, toggles off, then votes up again:
			// net effect +1 per voter.
			sess.Vote("s1", voter, VoteUp)
			sess.Vote("s1", voter, VoteUp)
			sess.Vote("s1", voter, VoteUp)
		}(i)
	}
	wg.Wait()

	snap := sess.Snapshot()
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, voters, snap.Queue[0].Votes)
	assert.Len(t, snap.VoterDirections["s1"], voters)
}
