package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/partyjam/partyjam/internal/playback"
	"github.com/partyjam/partyjam/internal/session"
)

// createSession godoc
// @Summary Create a party session
// @Description Creates a session with the caller as DJ. If a playlist id is supplied the queue is seeded from it; a failed playlist fetch still creates the session with an empty queue.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest true "Session parameters"
// @Success 200 {object} CreateSessionResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/sessions [post]
func (s *Server) createSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	var provider playback.Provider
	if req.PlaylistID != "" && req.AccessToken != "" {
		provider = s.providerFor(c.Request.Context(), req.AccessToken)
	}

	dj := session.UserRef{UserID: req.UserID, Username: req.Username}
	sess, err := s.registry.Create(c.Request.Context(), req.SessionName, dj, req.PlaylistID, provider)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, CreateSessionResponse{SessionID: sess.ID, Session: sess.Snapshot()})
}

// listSessions godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} session.ListResponse
// @Router /api/sessions [get]
func (s *Server) listSessions(c *gin.Context) {
	page := 1
	pageSize := session.DefaultPageSize

	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	if ps := c.Query("pageSize"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= session.MaxPageSize {
			pageSize = parsed
		}
	}

	c.JSON(200, s.registry.List(page, pageSize))
}

// joinSession godoc
// @Summary Join a session
// @Description Adds the user to the participant set. Joining twice with the same userId is a no-op.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body JoinSessionRequest true "Joining user"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id}/join [post]
func (s *Server) joinSession(c *gin.Context) {
	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, SessionResponse{Session: sess.Join(req.UserID, req.Username)})
}

// getSession godoc
// @Summary Get a session snapshot
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, SessionResponse{Session: sess.Snapshot()})
}

// vote godoc
// @Summary Vote on a queued song
// @Description Applies toggle/switch semantics: voting the same direction twice withdraws the vote, the opposite direction flips it.
// @Tags Queue
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body VoteRequest true "Vote"
// @Success 200 {object} session.VoteUpdatePayload
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id}/vote [post]
func (s *Server) vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	update, err := sess.Vote(req.SongID, req.UserID, session.Direction(req.VoteType))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, update)
}

// addSong godoc
// @Summary Add a song directly to the queue (DJ only)
// @Tags Queue
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body AddSongRequest true "Song to add"
// @Success 200 {object} session.Song
// @Failure 403 {object} ErrorResponse
// @Router /api/sessions/{id}/songs [post]
func (s *Server) addSong(c *gin.Context) {
	var req AddSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	song, err := sess.AddSong(req.Song, req.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, song)
}

// requestSong godoc
// @Summary Submit a song request for DJ approval
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body RequestSongRequest true "Requested song"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id}/requests [post]
func (s *Server) requestSong(c *gin.Context) {
	var req RequestSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	if _, err := sess.RequestSong(req.Song, req.RequestedBy); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, gin.H{"message": "request submitted"})
}

// listPendingRequests godoc
// @Summary List pending song requests
// @Tags Requests
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.PendingRequestsPayload
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id}/requests [get]
func (s *Server) listPendingRequests(c *gin.Context) {
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, session.PendingRequestsPayload{PendingRequests: sess.PendingRequests()})
}

// approveRequest godoc
// @Summary Approve a pending request (DJ only)
// @Description Moves the request into the queue with its votes reset to zero. Approving a missing request is an error.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param songId path string true "Song ID"
// @Param request body DJActionRequest true "Caller identity"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id}/requests/{songId}/approve [post]
func (s *Server) approveRequest(c *gin.Context) {
	var req DJActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := sess.ApproveRequest(c.Param("songId"), req.UserID); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, gin.H{"message": "request approved"})
}

// denyRequest godoc
// @Summary Deny a pending request (DJ only)
// @Description Removes the request. Denying a request that is already gone still succeeds.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param songId path string true "Song ID"
// @Param request body DJActionRequest true "Caller identity"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/sessions/{id}/requests/{songId}/deny [post]
func (s *Server) denyRequest(c *gin.Context) {
	var req DJActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := sess.DenyRequest(c.Param("songId"), req.UserID); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, gin.H{"message": "request denied"})
}

// playNext godoc
// @Summary Play the highest-voted song (DJ only)
// @Description Pops the top of the queue and starts playback. If the provider call fails the song is restored at the end of the queue.
// @Tags Queue
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body PlayNextRequest true "Caller identity and access token"
// @Success 200 {object} session.SongPlayedPayload
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/sessions/{id}/play-next [post]
func (s *Server) playNext(c *gin.Context) {
	var req PlayNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	provider := s.providerFor(c.Request.Context(), req.AccessToken)
	song, err := sess.PlayNext(c.Request.Context(), req.UserID, provider, req.DeviceID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, gin.H{"currentSong": song})
}

// searchTracks godoc
// @Summary Search the playback provider for tracks
// @Tags Search
// @Produce json
// @Param query query string true "Search query"
// @Param accessToken query string true "Provider access token"
// @Success 200 {object} SearchResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/search [get]
func (s *Server) searchTracks(c *gin.Context) {
	query := c.Query("query")
	accessToken := c.Query("accessToken")
	if query == "" || accessToken == "" {
		c.JSON(400, gin.H{"error": "query and accessToken are required"})
		return
	}

	provider := s.providerFor(c.Request.Context(), accessToken)
	tracks, err := provider.SearchTracks(c.Request.Context(), query, playback.DefaultSearchLimit)
	if err != nil {
		c.JSON(502, gin.H{"error": fmt.Sprintf("search failed: %v", err)})
		return
	}

	c.JSON(200, SearchResponse{Tracks: tracks})
}

// health godoc
// @Summary Health check
// @Tags Utility
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
