package session

// Direction is a voter's stance on a song.
type Direction string

const (
	VoteUp   Direction = "up"
	VoteDown Direction = "down"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == VoteUp || d == VoteDown
}

func (d Direction) delta() int {
	if d == VoteUp {
		return 1
	}
	return -1
}

// VoteLedger tracks, per song, which voter currently holds which direction.
// It is scoped to one session, so equal song ids in different sessions
// never share vote state. The ledger is the single writer of Song.Votes.
type VoteLedger struct {
	votes map[string]map[string]Direction // songID -> voterID -> direction
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{votes: make(map[string]map[string]Direction)}
}

// Apply records voterID's vote on song and adjusts song.Votes.
//
// The semantics are toggle/switch, not increment:
//   - no prior vote: the direction is recorded;
//   - prior vote in the same direction: the vote is withdrawn;
//   - prior vote in the opposite direction: the vote flips, moving the
//     count by two.
//
// Returns the new count and a copy of the song's voter->direction map.
func (l *VoteLedger) Apply(song *Song, voterID string, dir Direction) (int, map[string]Direction) {
	record, ok := l.votes[song.ID]
	if !ok {
		record = make(map[string]Direction)
		l.votes[song.ID] = record
	}

	prior, voted := record[voterID]
	switch {
	case !voted:
		record[voterID] = dir
		song.Votes += dir.delta()
	case prior == dir:
		delete(record, voterID)
		song.Votes -= dir.delta()
	default:
		record[voterID] = dir
		song.Votes += 2 * dir.delta()
	}

	return song.Votes, copyDirections(record)
}

// Directions returns a copy of the current voter->direction map for a song.
func (l *VoteLedger) Directions(songID string) map[string]Direction {
	return copyDirections(l.votes[songID])
}

// NetCount recomputes the song's count from the recorded directions.
// Song.Votes must always agree with this.
func (l *VoteLedger) NetCount(songID string) int {
	net := 0
	for _, dir := range l.votes[songID] {
		net += dir.delta()
	}
	return net
}

// Forget drops all vote state for a song. Called when the song leaves the
// session (played or denied).
func (l *VoteLedger) Forget(songID string) {
	delete(l.votes, songID)
}

// Reset clears a song's votes and zeroes its count. Approved requests
// enter the queue with a clean slate.
func (l *VoteLedger) Reset(song *Song) {
	delete(l.votes, song.ID)
	song.Votes = 0
}

func copyDirections(record map[string]Direction) map[string]Direction {
	out := make(map[string]Direction, len(record))
	for voter, dir := range record {
		out[voter] = dir
	}
	return out
}
