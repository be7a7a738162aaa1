package docstore

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ruo0o0/music-album/internal/music"
)

// Authenticator maps a bearer token to the user it belongs to.
type Authenticator func(token string) (userID string, ok bool)

// StaticTokens authenticates against a fixed token → user table.
func StaticTokens(tokens map[string]string) Authenticator {
	return func(token string) (string, bool) {
		uid, ok := tokens[token]
		return uid, ok
	}
}

const userKey = "album_user"

// Server exposes a Backend over HTTP under /v1/users/{user}/{collection}.
// Users may only touch their own documents.
type Server struct {
	router *gin.Engine
	logger *slog.Logger
}

// NewServer builds the API router over b.
func NewServer(b Backend, auth Authenticator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("album-docstore"))
	router.Use(requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := router.Group("/v1/users/:user", authMiddleware(auth))
	mountCollection(users.Group("/"+CollectionTracks), NewTrackRepository(b), logger)
	mountCollection(users.Group("/"+CollectionAlbums), NewAlbumRepository(b), logger)

	return &Server{router: router, logger: logger}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

func authMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" || auth == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Kind: string(music.KindUnauthorized)})
			return
		}
		uid, ok := auth(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token", Kind: string(music.KindUnauthorized)})
			return
		}
		if uid != c.Param("user") {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "token does not match user", Kind: string(music.KindUnauthorized)})
			return
		}
		c.Set(userKey, uid)
		c.Next()
	}
}

func mountCollection[D music.Draft[E], P music.Patch[E], E music.Document](g *gin.RouterGroup, repo *Repository[D, P, E], logger *slog.Logger) {
	g.GET("", func(c *gin.Context) {
		docs, err := repo.List(c.Request.Context(), c.GetString(userKey))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		if docs == nil {
			docs = []E{}
		}
		c.JSON(http.StatusOK, listResponse[E]{Documents: docs})
	})

	g.POST("", func(c *gin.Context) {
		var draft D
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		id, err := repo.Add(c.Request.Context(), c.GetString(userKey), draft)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, addResponse{ID: id})
	})

	g.PATCH("/:id", func(c *gin.Context) {
		var patch P
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if err := repo.Update(c.Request.Context(), c.GetString(userKey), c.Param("id"), patch); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		if err := repo.Delete(c.Request.Context(), c.GetString(userKey), c.Param("id")); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func writeError(c *gin.Context, logger *slog.Logger, err error) {
	if errors.Is(err, music.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Kind: string(music.KindNotFound)})
		return
	}
	logger.Error("docstore request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: string(music.KindRemoteUnavailable)})
}
