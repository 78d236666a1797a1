package guard

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/supremind/ability/types"
)

// UIDClaim holds the identity of a session token, the subject claim is used when it is missing
const UIDClaim = "uid"

var errNoIdentity = errors.New("token carries no identity")

// Sign issues a session token for id, valid for ttl
func Sign(secret []byte, id types.Identity, ttl time.Duration) (string, error) {
	if !id.Valid() || id.IsGuest() {
		return "", fmt.Errorf("%w: %d", types.ErrUnknownIdentity, int64(id))
	}

	now := time.Now()
	claims := jwt.MapClaims{
		UIDClaim: int64(id),
		"sub":    strconv.FormatInt(int64(id), 10),
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (g *Guard) parse(token string) (types.Identity, error) {
	claims := jwt.MapClaims{}
	_, e := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if e != nil {
		return types.Guest, e
	}

	var id types.Identity
	switch uid := claims[UIDClaim].(type) {
	case float64:
		if uid != math.Trunc(uid) || uid < math.MinInt64 || uid >= math.MaxInt64 {
			return types.Guest, fmt.Errorf("%w: %v", types.ErrUnknownIdentity, uid)
		}
		id = types.Identity(uid)
	case string:
		id, e = types.ParseIdentity(uid)
	case nil:
		sub, _ := claims.GetSubject()
		if sub == "" {
			return types.Guest, errNoIdentity
		}
		id, e = types.ParseIdentity(sub)
	default:
		return types.Guest, fmt.Errorf("%w: %v", types.ErrUnknownIdentity, uid)
	}
	if e != nil {
		return types.Guest, e
	}

	// a signed token never stands for a guest
	if !id.Valid() || id.IsGuest() {
		return types.Guest, fmt.Errorf("%w: %d", types.ErrUnknownIdentity, int64(id))
	}
	return id, nil
}
