package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Collab/internal/adapters/signal"
	"github.com/dkeye/Collab/internal/app"
	"github.com/dkeye/Collab/internal/config"
	"github.com/dkeye/Collab/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CollabSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	limiter := signal.NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinWindow)
	ctrl := signal.NewController(coord, limiter, cfg.ReadLimit, cfg.PingPeriod, cfg.SendBuffer)

	api := r.Group("/api")

	// GET /api/rooms — list live rooms
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": coord.Rooms.List()})
	})

	// GET /api/rooms/:key — room info; rooms are never created by REST
	api.GET("/rooms/:key", func(c *gin.Context) {
		key := domain.RoomKey(c.Param("key"))
		room, ok := coord.Rooms.Get(key)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"key":          room.Key(),
			"member_count": room.MemberCount(),
			"conn_count":   room.ConnCount(),
		})
	})

	// GET /api/rooms/:key/members — presence snapshot
	api.GET("/rooms/:key/members", func(c *gin.Context) {
		key := domain.RoomKey(c.Param("key"))
		room, ok := coord.Rooms.Get(key)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, room.MembersSnapshot())
	})

	// GET /api/rooms/:key/name-check?name= — advisory uniqueness check.
	// The authoritative re-check happens at join time.
	api.GET("/rooms/:key/name-check", func(c *gin.Context) {
		name := c.Query("name")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
			return
		}
		key := domain.RoomKey(c.Param("key"))
		c.JSON(http.StatusOK, gin.H{"free": coord.NameFree(key, name)})
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("ct", c.GetString("client_token")).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
