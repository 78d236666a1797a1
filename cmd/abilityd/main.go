// Command abilityd serves the abilities of warehouse identities over http
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	goredis "github.com/redis/go-redis/v9"

	"github.com/supremind/ability"
	"github.com/supremind/ability/guard"
	"github.com/supremind/ability/internal/config"
	"github.com/supremind/ability/persist/file"
	"github.com/supremind/ability/persist/postgres"
	"github.com/supremind/ability/persist/redis"
	"github.com/supremind/ability/types"
)

func main() {
	l := stdr.New(log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)).WithName("abilityd")

	cfg, e := config.Load()
	if e != nil {
		l.Error(e, "load config")
		os.Exit(1)
	}
	stdr.SetVerbosity(cfg.LogVerbosity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if e := run(ctx, cfg, l); e != nil {
		l.Error(e, "abilityd stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, l logr.Logger) error {
	db, e := sql.Open("postgres", cfg.DatabaseURL)
	if e != nil {
		return e
	}
	defer db.Close()

	var src types.RuleSource
	src, e = postgres.NewRuleSource(db, postgres.WithView(cfg.RulesView), postgres.WithLogger(l.WithName("postgres")))
	if e != nil {
		return e
	}

	var cache *redis.CachedRuleSource
	if cfg.CacheEnabled() {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		cache, e = redis.NewCachedRuleSource(src, client, cfg.RuleCacheTTL, redis.WithLogger(l.WithName("cache")))
		if e != nil {
			return e
		}
		src = cache
		l.V(4).Info("caching rules", "redis", cfg.RedisAddr, "ttl", cfg.RuleCacheTTL)
	}

	opts := []ability.AuthorizerOption{
		ability.WithRuleSource(src),
		ability.WithLogger(l),
		ability.WithPresets(ability.OwnProfile),
	}
	if cfg.GuestRulesFile != "" {
		guest, e := file.LoadRules(cfg.GuestRulesFile)
		if e != nil {
			return e
		}
		opts = append(opts, ability.WithGuestRules(guest...))
	}
	if ids := cfg.SuperUserIdentities(); len(ids) > 0 {
		opts = append(opts, ability.WithPresets(ability.SuperUsers(ids...)))
	}
	if cfg.StrictFields {
		opts = append(opts, ability.WithStrictFields())
	}

	authz, e := ability.New(ctx, opts...)
	if e != nil {
		return e
	}

	g := guard.New(authz, []byte(cfg.JWTSecret), guard.WithLogger(l.WithName("guard")))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), g.Authenticate())
	r.GET("/healthz", func(c *gin.Context) {
		if e := db.PingContext(c.Request.Context()); e != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": e.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/abilities/rules", g.RulesHandler())
	r.GET("/abilities/check", g.CheckHandler())
	r.GET("/identities/:id/rules", g.Require(types.Read, types.User), g.IdentityRulesHandler("id"))
	if cache != nil {
		r.DELETE("/identities/:id/rules", g.Require(types.Manage, types.User), func(c *gin.Context) {
			id, e := types.ParseIdentity(c.Param("id"))
			if e != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Error()})
				return
			}
			if e := cache.Invalidate(c.Request.Context(), id); e != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": e.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		l.Info("listening", "addr", cfg.ListenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case e := <-errc:
		if !errors.Is(e, http.ErrServerClosed) {
			return e
		}
		return nil
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
