package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hpmusic/audio"
	"hpmusic/controller"
	"hpmusic/models"
)

const sessionKey = "dashboardSession"

type createPlaylistRequest struct {
	Name *string `json:"name" binding:"required"`
}

type addSongRequest struct {
	Song *models.Song `json:"song" binding:"required"`
}

type selectSongRequest struct {
	Song   *models.Song `json:"song"`
	SongID string       `json:"song_id"`
	Source string       `json:"source"`
}

type seekRequest struct {
	Time *float64 `json:"time" binding:"required"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume" binding:"required"`
}

type playerEventRequest struct {
	Type     string  `json:"type" binding:"required"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
}

func (manager *Manager) registerDashboard(group *gin.RouterGroup) {
	group.POST("/sessions", manager.handleCreateSession)

	sessions := group.Group("/sessions/:sid", manager.requireSession)
	sessions.GET("", manager.handleGetSession)
	sessions.DELETE("", manager.handleEndSession)
	sessions.GET("/search", manager.handleDashboardSearch)
	sessions.GET("/trending", manager.handleTrending)

	sessions.GET("/playlists", manager.handleListPlaylists)
	sessions.POST("/playlists", manager.handleCreatePlaylist)
	sessions.GET("/playlists/:pid", manager.handleGetPlaylist)
	sessions.POST("/playlists/:pid/songs", manager.handleAddSong)
	sessions.GET("/playlists/:pid/m3u", manager.handleExportPlaylist)

	player := sessions.Group("/player")
	player.GET("", manager.handlePlayer)
	player.POST("/select", manager.handleSelectSong)
	player.POST("/toggle", manager.handleToggle)
	player.POST("/seek", manager.handleSeek)
	player.POST("/volume", manager.handleVolume)
	player.POST("/mute", manager.handleMute)
	player.POST("/next", manager.handleNext)
	player.POST("/previous", manager.handlePrevious)
	player.POST("/events", manager.handlePlayerEvent)
}

// requireSession resolves :sid and stores the session on the context.
func (manager *Manager) requireSession(c *gin.Context) {
	session, ok := manager.Controller.Session(c.Param("sid"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse("Session not found"))
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

func currentSession(c *gin.Context) *controller.Session {
	return c.MustGet(sessionKey).(*controller.Session)
}

func (manager *Manager) handleCreateSession(c *gin.Context) {
	session := manager.Controller.NewSession()
	c.JSON(http.StatusCreated, session.Snapshot())
}

func (manager *Manager) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Snapshot())
}

func (manager *Manager) handleEndSession(c *gin.Context) {
	manager.Controller.EndSession(currentSession(c).ID)
	c.Status(http.StatusNoContent)
}

func (manager *Manager) handleDashboardSearch(c *gin.Context) {
	query := c.Query("q")
	results, err := currentSession(c).Search(c.Request.Context(), query)
	if err != nil {
		manager.reportError(c, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to search tracks"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

func (manager *Manager) handleTrending(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"songs": currentSession(c).Trending()})
}

func (manager *Manager) handleListPlaylists(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"playlists": currentSession(c).Playlists()})
}

func (manager *Manager) handleCreatePlaylist(c *gin.Context) {
	var request createPlaylistRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	playlist, ok := currentSession(c).CreatePlaylist(*request.Name)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

func (manager *Manager) handleGetPlaylist(c *gin.Context) {
	playlist, ok := currentSession(c).SelectPlaylist(c.Param("pid"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse("Playlist not found"))
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (manager *Manager) handleAddSong(c *gin.Context) {
	var request addSongRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}
	if strings.TrimSpace(request.Song.ID) == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Song ID is required"))
		return
	}

	playlist, ok := currentSession(c).AddSongToPlaylist(*request.Song, c.Param("pid"))
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (manager *Manager) handleExportPlaylist(c *gin.Context) {
	var buf bytes.Buffer
	found, err := currentSession(c).ExportM3U(c.Param("pid"), &buf)
	if !found {
		c.JSON(http.StatusNotFound, errorResponse("Playlist not found"))
		return
	}
	if err != nil {
		manager.reportError(c, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to export playlist"))
		return
	}
	c.Data(http.StatusOK, "audio/x-mpegurl", buf.Bytes())
}

func (manager *Manager) handlePlayer(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Player())
}

// handleSelectSong plays a song given inline or by an id the session knows.
func (manager *Manager) handleSelectSong(c *gin.Context) {
	var request selectSongRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	session := currentSession(c)
	var song models.Song
	switch {
	case request.Song != nil && request.Song.ID != "":
		song = *request.Song
	case request.SongID != "":
		found, ok := session.LookupSong(request.SongID)
		if !ok {
			c.JSON(http.StatusNotFound, errorResponse("Song not found"))
			return
		}
		song = found
	default:
		c.JSON(http.StatusBadRequest, errorResponse("Song is required"))
		return
	}

	state, err := session.PlaySong(song, controller.QueueSource(request.Source))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, state)
}

func (manager *Manager) handleToggle(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).TogglePlayPause())
}

func (manager *Manager) handleSeek(c *gin.Context) {
	var request seekRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	state, err := currentSession(c).Seek(*request.Time)
	if errors.Is(err, audio.ErrNoSong) {
		c.JSON(http.StatusConflict, errorResponse("No song loaded"))
		return
	}
	c.JSON(http.StatusOK, state)
}

func (manager *Manager) handleVolume(c *gin.Context) {
	var request volumeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}
	c.JSON(http.StatusOK, currentSession(c).SetVolume(*request.Volume))
}

func (manager *Manager) handleMute(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).ToggleMute())
}

func (manager *Manager) handleNext(c *gin.Context) {
	state, _ := currentSession(c).Next()
	c.JSON(http.StatusOK, state)
}

func (manager *Manager) handlePrevious(c *gin.Context) {
	state, _ := currentSession(c).Previous()
	c.JSON(http.StatusOK, state)
}

func (manager *Manager) handlePlayerEvent(c *gin.Context) {
	var request playerEventRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	state, err := currentSession(c).HandleEvent(controller.PlayerEvent(request.Type), request.Time, request.Duration)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, state)
}
