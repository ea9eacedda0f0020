package utils_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"quotation_system/internal/utils"
)

func TestJWTRoundTrip(t *testing.T) {
	c := qt.New(t)

	token, err := utils.GenerateJWT(7, "ravi", "sid-1", "secret", time.Hour)
	c.Assert(err, qt.IsNil)

	claims, err := utils.ParseJWT(token, "secret")
	c.Assert(err, qt.IsNil)
	c.Assert(claims.UserID, qt.Equals, uint(7))
	c.Assert(claims.Username, qt.Equals, "ravi")
	c.Assert(claims.SessionID(), qt.Equals, "sid-1")
}

func TestJWTRejectsTamperedOrExpired(t *testing.T) {
	c := qt.New(t)

	token, err := utils.GenerateJWT(7, "ravi", "sid-1", "secret", time.Hour)
	c.Assert(err, qt.IsNil)
	_, err = utils.ParseJWT(token, "other-secret")
	c.Assert(err, qt.IsNotNil)

	expired, err := utils.GenerateJWT(7, "ravi", "sid-1", "secret", -time.Minute)
	c.Assert(err, qt.IsNil)
	_, err = utils.ParseJWT(expired, "secret")
	c.Assert(err, qt.IsNotNil)

	noSession, err := utils.GenerateJWT(7, "ravi", "", "secret", time.Hour)
	c.Assert(err, qt.IsNil)
	_, err = utils.ParseJWT(noSession, "secret")
	c.Assert(err, qt.ErrorIs, utils.ErrInvalidSession)
}

func TestPassword(t *testing.T) {
	c := qt.New(t)

	hash, err := utils.HashPassword("s3cret-pass")
	c.Assert(err, qt.IsNil)
	c.Assert(hash, qt.Not(qt.Equals), "s3cret-pass")
	c.Assert(utils.CheckPassword(hash, "s3cret-pass"), qt.IsTrue)
	c.Assert(utils.CheckPassword(hash, "wrong"), qt.IsFalse)
	c.Assert(utils.CheckPassword("plain-text", "plain-text"), qt.IsFalse)
}

func TestCacheWithoutClient(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Assert(utils.SetCache(ctx, nil, "k", []string{"a"}, time.Minute), qt.IsNil)
	var dest []string
	hit, err := utils.GetCache(ctx, nil, "k", &dest)
	c.Assert(err, qt.IsNil)
	c.Assert(hit, qt.IsFalse)
	c.Assert(utils.DeleteCache(ctx, nil, "k"), qt.IsNil)
}
