package main

import (
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harshbpathak/zk-battleship/crypto"
	"github.com/harshbpathak/zk-battleship/relay"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {

	// logger setup
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	// ENVs
	port, exists := os.LookupEnv("PORT")
	if !exists {
		port = "5000"
	}

	ALLOWED_ORIGINS, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists {
		log.Fatal().Msg("Missing allowed origins")
	}
	allowedOrigins := strings.Split(ALLOWED_ORIGINS, ",")

	JWT_KEY, exists := os.LookupEnv("JWT_KEY")
	if !exists {
		log.Fatal().Msg("Missing jwt signing key")
	}

	// Dependencies
	tokenAge := time.Hour // well past the 2 minute rejoin grace window
	tokens := crypto.NewJWTManager(JWT_KEY, tokenAge)

	registry := relay.NewRegistry(tokens, relay.NewTickerGen())

	registryStarted := make(chan struct{})
	go registry.Run(registryStarted)
	<-registryStarted

	relayHandler := relay.NewHandler(registry, allowedOrigins)

	r := CreateServer(allowedOrigins)
	r.GET("/ws", relayHandler.ServeWS)

	log.Info().Str("port", port).Msg("relay listening")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
