package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/KlausAbut/flowboard-app/api"
	"github.com/KlausAbut/flowboard-app/realtime"
	"github.com/KlausAbut/flowboard-app/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	ctx := context.Background()

	var store api.Storage
	if inMem, err := strconv.ParseBool(os.Getenv("IN_MEMORY_STORE")); err == nil && inMem {
		mem := storage.NewMemory()
		mem.SeedBoard("Demo board", "Todo", "In Progress", "Done")
		store = mem
		log.Warn("using in-memory store; state is lost on restart")
	} else {
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			log.Fatal("missing DATABASE_URL")
		}
		pg, err := storage.NewPostgres(ctx, connStr)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		defer pg.Close()
		store = pg
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)

	auth := buildAuth()

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(ctx)
	otel.SetTracerProvider(tp)

	logger := log.New()
	broker := realtime.NewBroker()
	notifier := realtime.NewNotifier(rc, realtime.DefaultChannel, logger)
	go realtime.SubscribeUpdates(ctx, logger, rc, realtime.DefaultChannel, broker)

	e := echo.New()
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{origin},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	api.Register(e, store, auth, notifier, logger)
	realtime.Register(e, broker, auth)

	listenAddr := ":4000"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// buildAuth selects the session gate mode: RS256 against an external JWKS
// when an identity-provider domain is configured, HS256 with a local shared
// secret otherwise.
func buildAuth() *api.Auth {
	if domain := os.Getenv("AUTH_JWKS_DOMAIN"); domain != "" {
		audience := os.Getenv("AUTH_JWKS_AUDIENCE")
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		return api.NewJWKSAuth(jwks, audience, "https://"+domain+"/")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
		log.Warn("JWT_SECRET not set, using development secret")
	}
	return api.NewAuth([]byte(secret))
}
