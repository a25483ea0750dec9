package session

import "sort"

// Queue is the ordered collection of approved songs. Insertion order is
// preserved; playback order is derived on demand from vote counts.
type Queue struct {
	songs []*Song
}

func NewQueue() *Queue {
	return &Queue{}
}

// Append inserts a song at the end. No reordering happens at insert time.
func (q *Queue) Append(song *Song) {
	q.songs = append(q.songs, song)
}

// Len returns the number of queued songs.
func (q *Queue) Len() int {
	return len(q.songs)
}

// Find returns the queued song with the given id, or nil.
func (q *Queue) Find(songID string) *Song {
	for _, s := range q.songs {
		if s.ID == songID {
			return s
		}
	}
	return nil
}

// ordered sorts the live entries by votes descending. The sort is
// stable: songs with equal votes keep their relative insertion order, so
// playback order is deterministic.
func (q *Queue) ordered() []*Song {
	ordered := make([]*Song, len(q.songs))
	copy(ordered, q.songs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Votes > ordered[j].Votes
	})
	return ordered
}

// Ordered returns a point-in-time copy of the songs in playback order.
// The copies never alias the live queue, so callers can marshal them
// after the session mutex is released.
func (q *Queue) Ordered() []*Song {
	live := q.ordered()
	out := make([]*Song, len(live))
	for i, s := range live {
		out[i] = s.clone()
	}
	return out
}

// PopNext removes and returns the highest-voted song. This is the
// authoritative "what plays next" operation.
func (q *Queue) PopNext() (*Song, error) {
	if len(q.songs) == 0 {
		return nil, ErrEmptyQueue
	}
	next := q.ordered()[0]
	for i, s := range q.songs {
		if s == next {
			q.songs = append(q.songs[:i], q.songs[i+1:]...)
			break
		}
	}
	return next, nil
}

// RestoreAtEnd puts a popped song back at the end of the queue. Used as
// the compensating action when playback fails after a pop.
func (q *Queue) RestoreAtEnd(song *Song) {
	q.songs = append(q.songs, song)
}
