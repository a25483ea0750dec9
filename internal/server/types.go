package server

import (
	"github.com/partyjam/partyjam/internal/playback"
	"github.com/partyjam/partyjam/internal/session"
)

// CreateSessionRequest represents the request body for creating a session
type CreateSessionRequest struct {
	SessionName string `json:"sessionName" binding:"required"`
	UserID      string `json:"userId" binding:"required"`
	Username    string `json:"username" binding:"required"`
	PlaylistID  string `json:"playlistId"`
	AccessToken string `json:"accessToken"`
}

// JoinSessionRequest represents the request body for joining a session
type JoinSessionRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// VoteRequest represents the request body for voting on a queued song
type VoteRequest struct {
	SongID   string `json:"songId" binding:"required"`
	UserID   string `json:"userId" binding:"required"`
	VoteType string `json:"voteType" binding:"required"`
}

// RequestSongRequest represents the request body for submitting a song request
type RequestSongRequest struct {
	Song        playback.Track  `json:"song" binding:"required"`
	RequestedBy session.UserRef `json:"requestedBy" binding:"required"`
}

// AddSongRequest represents the request body for the DJ's direct add
type AddSongRequest struct {
	Song   playback.Track `json:"song" binding:"required"`
	UserID string         `json:"userId" binding:"required"`
}

// DJActionRequest identifies the caller of a DJ-only action
type DJActionRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// PlayNextRequest represents the request body for playing the next song
type PlayNextRequest struct {
	UserID      string `json:"userId" binding:"required"`
	AccessToken string `json:"accessToken" binding:"required"`
	DeviceID    string `json:"deviceId"`
}

// CreateSessionResponse returns the new session id and its first snapshot
type CreateSessionResponse struct {
	SessionID string           `json:"sessionId"`
	Session   session.Snapshot `json:"session"`
}

// SessionResponse wraps a session snapshot
type SessionResponse struct {
	Session session.Snapshot `json:"session"`
}

// SearchResponse wraps provider search results
type SearchResponse struct {
	Tracks []playback.Track `json:"tracks"`
}

// MessageResponse represents a generic message payload used for success responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents a generic error payload used for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
