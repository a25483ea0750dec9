package session

// RequestInbox holds songs awaiting DJ approval, in submission order.
type RequestInbox struct {
	pending []*PendingRequest
}

func NewRequestInbox() *RequestInbox {
	return &RequestInbox{}
}

// Submit appends a request to the pending list.
func (in *RequestInbox) Submit(song *Song, requestedBy UserRef) *PendingRequest {
	req := &PendingRequest{Song: song, RequestedBy: requestedBy}
	in.pending = append(in.pending, req)
	return req
}

// Pending returns a point-in-time copy of the pending list. The copies
// never alias the live entries: an approved song's votes move while
// earlier payloads may still be waiting to hit the wire.
func (in *RequestInbox) Pending() []*PendingRequest {
	out := make([]*PendingRequest, len(in.pending))
	for i, req := range in.pending {
		out[i] = req.clone()
	}
	return out
}

// Take removes and returns the pending request for the given song id.
// Used by approve, which treats a missing entry as an error.
func (in *RequestInbox) Take(songID string) (*PendingRequest, error) {
	for i, req := range in.pending {
		if req.Song.ID == songID {
			in.pending = append(in.pending[:i], in.pending[i+1:]...)
			return req, nil
		}
	}
	return nil, ErrRequestNotFound
}

// Discard removes the pending request for the given song id if present.
// A missing entry is not an error: denying twice must stay idempotent
// under racing DJ clicks.
func (in *RequestInbox) Discard(songID string) {
	for i, req := range in.pending {
		if req.Song.ID == songID {
			in.pending = append(in.pending[:i], in.pending[i+1:]...)
			return
		}
	}
}
