package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sin-limites/internal/db"
	"sin-limites/internal/store"
)

type adminRoomURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type adminAddPlayerRequest struct {
	Name string `json:"name" binding:"required,name"`
}

type adminPlayerURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// adminRouter serves the operator API. Listing endpoints read the
// persisted mirror, so they answer for finished rooms too; mutating
// endpoints go through the live store so subscribers see the change.
func (s *Server) adminRouter() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Recovery())

	admin := router.Group("/admin")
	admin.GET("/rooms", s.handleAdminListRooms)
	admin.GET("/rooms/:id", s.handleAdminRoom)
	admin.GET("/rooms/:id/events", s.handleAdminRoomEvents)
	admin.POST("/rooms/:id/players", s.handleAdminAddPlayer)
	admin.POST("/players/:id", s.handleAdminUpdatePlayer)
	return router
}

func (s *Server) requireDB(c *gin.Context) bool {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence not configured"})
		return false
	}
	return true
}

func (s *Server) handleAdminListRooms(c *gin.Context) {
	if !s.requireDB(c) {
		return
	}
	page, perPage := parsePagination(c, 20, 100)

	var total int64
	if err := s.db.Model(&db.Room{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}
	meta := buildPaginationMeta(page, perPage, total)

	var rooms []db.Room
	err := s.db.Order("created_at desc").
		Offset((meta.Page - 1) * meta.PerPage).
		Limit(meta.PerPage).
		Find(&rooms).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rooms":      rooms,
		"pagination": meta,
	})
}

func (s *Server) handleAdminRoom(c *gin.Context) {
	if !s.requireDB(c) {
		return
	}
	var uri adminRoomURI
	if !bindURI(c, &uri) {
		return
	}
	var room db.Room
	err := s.db.Preload("Players").Preload("Submissions").
		First(&room, "id = ?", uri.ID).Error
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleAdminRoomEvents(c *gin.Context) {
	if !s.requireDB(c) {
		return
	}
	var uri adminRoomURI
	if !bindURI(c, &uri) {
		return
	}
	var events []db.Event
	err := s.db.Where("room_id = ?", uri.ID).
		Order("created_at asc").
		Find(&events).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleAdminAddPlayer(c *gin.Context) {
	var uri adminRoomURI
	if !bindURI(c, &uri) {
		return
	}
	roomID, err := uuid.Parse(uri.ID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	if _, ok := s.store.RoomByID(roomID); !ok {
		c.Status(http.StatusNotFound)
		return
	}
	var req adminAddPlayerRequest
	if !bindJSON(c, &req, bindMessages{
		"Name": {
			"required": "name is required",
			"name":     "name contains unsupported characters",
		},
	}, "invalid player") {
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	player, created, err := s.store.JoinRoom(roomID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add player"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, player)
}

func (s *Server) handleAdminUpdatePlayer(c *gin.Context) {
	var uri adminPlayerURI
	if !bindURI(c, &uri) {
		return
	}
	playerID, err := uuid.Parse(uri.ID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	var changes store.PlayerChanges
	if !bindJSON(c, &changes, nil, "invalid player update") {
		return
	}
	player, err := s.store.UpdatePlayer(playerID, changes.Apply)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, player)
}
