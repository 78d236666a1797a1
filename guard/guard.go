// Package guard protects gin routes with abilities.
//
// Authenticate puts the identity of the caller into the request, Require builds the ability of
// that identity and lets the request through only if it is permitted to act on the subject.
// Guards never fail open: an ability that could not be built denies.
package guard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/supremind/ability"
	"github.com/supremind/ability/types"
)

// keys of values set on gin contexts
const (
	IdentityKey = "ability.identity"
	AbilityKey  = "ability.ability"
)

// TokenCookie is the cookie a session token may be sent in, instead of the authorization header
const TokenCookie = "token"

// Guard builds gin handlers over an authorizer
type Guard struct {
	authz  types.Authorizer
	secret []byte
	log    logr.Logger
}

// Option configures a Guard
type Option func(*Guard)

// WithLogger sets logger for the guard
func WithLogger(l logr.Logger) Option {
	return func(g *Guard) {
		g.log = l
	}
}

// New creates a guard checking session tokens signed with secret
func New(authz types.Authorizer, secret []byte, opts ...Option) *Guard {
	g := &Guard{
		authz:  authz,
		secret: secret,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate sets the identity of the caller on the context.
// Callers without a token are guests, callers with an invalid token are rejected.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, e := bearer(c)
		if e != nil {
			g.log.V(4).Info("reject credentials", "path", c.FullPath(), "error", e.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": e.Error()})
			return
		}
		if token == "" {
			c.Set(IdentityKey, types.Guest)
			c.Next()
			return
		}

		id, e := g.parse(token)
		if e != nil {
			g.log.V(4).Info("reject token", "path", c.FullPath(), "error", e.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set(IdentityKey, id)
		c.Next()
	}
}

// Require lets the request through if the caller is permitted to act on sub
func (g *Guard) Require(act types.Action, sub types.Subject) gin.HandlerFunc {
	return func(c *gin.Context) {
		ab, ok := g.ability(c)
		if !ok {
			return
		}

		if !ability.Permitted(ab, act, sub) {
			g.log.V(4).Info("deny", "identity", IdentityOf(c), "action", act, "subject", sub, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not permitted to " + act.String() + " " + sub.String()})
			return
		}

		c.Next()
	}
}

// RulesHandler serves the rules of the caller, clients compile them into the same ability
func (g *Guard) RulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ab, ok := g.ability(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, ab.Rules())
	}
}

// IdentityRulesHandler serves the rules of the identity named by the path parameter param.
// It is meant to be guarded, it checks nothing about the caller.
func (g *Guard) IdentityRulesHandler(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, e := types.ParseIdentity(c.Param(param))
		if e != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Error()})
			return
		}

		rules, e := g.authz.Rules(c.Request.Context(), id)
		if e != nil {
			g.log.Error(e, "load rules", "identity", id, "caller", IdentityOf(c))
			if errors.Is(e, types.ErrRuleSourceUnavailable) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "permissions are unavailable"})
			} else {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, rules)
	}
}

type checkQuery struct {
	Action  string `form:"action" binding:"required"`
	Subject string `form:"subject" binding:"required"`
	Field   string `form:"field"`
}

type checkResult struct {
	Action    types.Action  `json:"action"`
	Subject   types.Subject `json:"subject"`
	Field     string        `json:"field,omitempty"`
	Can       bool          `json:"can"`
	Permitted bool          `json:"permitted"`
}

// CheckHandler answers whether the caller can act on a subject, or on a field of it
func (g *Guard) CheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q checkQuery
		if e := c.ShouldBindQuery(&q); e != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Error()})
			return
		}
		act, e := types.ParseAction(q.Action)
		if e != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Error()})
			return
		}
		sub, e := types.ParseSubject(q.Subject)
		if e != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Error()})
			return
		}

		ab, ok := g.ability(c)
		if !ok {
			return
		}

		res := checkResult{Action: act, Subject: sub, Field: q.Field, Permitted: ability.Permitted(ab, act, sub)}
		if q.Field != "" {
			res.Can = ab.CanField(act, sub, q.Field)
		} else {
			res.Can = ab.Can(act, sub)
		}
		c.JSON(http.StatusOK, res)
	}
}

// ability returns the ability of the caller, building it once per request.
// The request is aborted when no ability could be built.
func (g *Guard) ability(c *gin.Context) (types.Ability, bool) {
	if v, ok := c.Get(AbilityKey); ok {
		return v.(types.Ability), true
	}

	id := IdentityOf(c)
	ab, e := g.authz.Ability(c.Request.Context(), id)
	if e != nil {
		g.log.Error(e, "build ability", "identity", id, "path", c.FullPath())
		if errors.Is(e, types.ErrRuleSourceUnavailable) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "permissions are unavailable"})
		} else {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": e.Error()})
		}
		return nil, false
	}

	c.Set(AbilityKey, ab)
	return ab, true
}

// IdentityOf returns the identity Authenticate set, guest if none was set
func IdentityOf(c *gin.Context) types.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(types.Identity); ok {
			return id
		}
	}
	return types.Guest
}

// AbilityOf returns the ability guards built for the request, if any
func AbilityOf(c *gin.Context) (types.Ability, bool) {
	v, ok := c.Get(AbilityKey)
	if !ok {
		return nil, false
	}
	ab, ok := v.(types.Ability)
	return ab, ok
}

// errNotBearer rejects an authorization header carrying no bearer token
var errNotBearer = errors.New("authorization is not a bearer token")

// bearer returns the session token of the request, empty when none was sent
func bearer(c *gin.Context) (string, error) {
	if h := c.GetHeader("Authorization"); h != "" {
		if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
			return "", errNotBearer
		}
		token := strings.TrimSpace(h[7:])
		if token == "" {
			return "", errNotBearer
		}
		return token, nil
	}
	token, _ := c.Cookie(TokenCookie)
	return token, nil
}
