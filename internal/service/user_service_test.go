package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	f := newFixture(t, false)
	svc := NewUserService(f.db, f.userRepo, f.followRepo, 80)
	ctx := context.Background()

	u1, err := svc.Register(ctx, "bob", "bob@example.com", "first bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", u1.Nickname)

	u2, err := svc.Register(ctx, " bob ", "bob2@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "bob2", u2.Nickname)

	u3, err := svc.Register(ctx, "bob", "bob3@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "bob3", u3.Nickname)

	_, err = svc.Register(ctx, "robert", "bob@example.com", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_Profile(t *testing.T) {
	f := newFixture(t, false)
	svc := NewUserService(f.db, f.userRepo, f.followRepo, 80)
	rel := f.relations(true)
	ctx := context.Background()

	a, err := svc.Register(ctx, "a", "a@b.com", "")
	require.NoError(t, err)
	b, err := svc.Register(ctx, "b", "b@b.com", "")
	require.NoError(t, err)
	_, err = rel.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	p, err := svc.Profile(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", p.User.Nickname)
	assert.Equal(t, "http://www.gravatar.com/avatar/357a20e8c56e69d6f9734d23ef9517e8?d=mm&s=80", p.Avatar)
	assert.Equal(t, int64(1), p.Following)
	assert.Equal(t, int64(0), p.Followers)

	_, err = svc.Profile(ctx, 12345)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
