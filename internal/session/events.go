package session

// Event names broadcast to session members.
const (
	EventVoteUpdate            = "voteUpdate"
	EventQueueUpdate           = "queueUpdate"
	EventPendingRequestsUpdate = "pendingRequestsUpdate"
	EventNewSongRequest        = "newSongRequest"
	EventSongPlayed            = "songPlayed"
)

// VoteUpdatePayload carries the new count and the full voter->direction
// map, so each client can render its own vote state.
type VoteUpdatePayload struct {
	SongID          string               `json:"songId"`
	Votes           int                  `json:"votes"`
	VoterDirections map[string]Direction `json:"voterDirections"`
}

// QueueUpdatePayload carries the full queue after any change to it.
type QueueUpdatePayload struct {
	Queue []*Song `json:"queue"`
}

// PendingRequestsPayload carries the full pending list.
type PendingRequestsPayload struct {
	PendingRequests []*PendingRequest `json:"pendingRequests"`
}

// NewSongRequestPayload announces a single fresh request so the DJ can be
// prompted without polling.
type NewSongRequestPayload struct {
	Request *PendingRequest `json:"request"`
}

// SongPlayedPayload announces a successful play-next commit.
type SongPlayedPayload struct {
	CurrentSong *Song   `json:"currentSong"`
	Queue       []*Song `json:"queue"`
	SongsPlayed int     `json:"songsPlayed"`
}
