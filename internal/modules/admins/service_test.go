package admins_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/admins"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbtest"
)

func TestAuthenticate(t *testing.T) {
	db := dbtest.New(t)
	svc := admins.NewService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Ops@Example.org", "Ops", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.org", created.Email)
	assert.NotEqual(t, "correct horse battery", created.PasswordHash)

	adm, err := svc.Authenticate(ctx, "ops@example.org", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, created.ID, adm.ID)

	// Wrong password and unknown email fail identically.
	_, err = svc.Authenticate(ctx, "ops@example.org", "wrong password")
	require.ErrorIs(t, err, admins.ErrBadCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.org", "correct horse battery")
	require.ErrorIs(t, err, admins.ErrBadCredentials)
}
