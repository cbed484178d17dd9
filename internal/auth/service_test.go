package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func TestService_Login(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)
	require.NotNil(t, authService)
	assert.NotNil(t, authService.redisClient)
	assert.Equal(t, time.Hour, authService.ttl)

	testToken := "test_token"
	authService.RandStringFunc = func(s int) (string, error) {
		return testToken, nil
	}

	now := time.Now()
	sessionKey := sessionKeyPrefix + testToken
	mock.ExpectSet(sessionKey, now.Unix(), 0).SetVal(fmt.Sprintf("%d", now.Unix()))
	mock.ExpectSAdd(tokensSetKey, testToken).SetVal(1)

	token, err := authService.Login(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Logout(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)

	testToken := "test_token"
	sessionKey := sessionKeyPrefix + testToken
	createdAt := time.Now().Add(-time.Minute)

	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("%d", createdAt.Unix()))
	mock.ExpectSet(sessionKey, 0, 0).SetVal("0")
	mock.ExpectSRem(tokensSetKey, testToken).SetVal(1)

	loggedOut, err := authService.Logout(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, loggedOut)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Logout_UnknownToken(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)

	sessionKey := sessionKeyPrefix + "unknown"
	mock.ExpectGet(sessionKey).RedisNil()

	_, err := authService.Logout(context.Background(), "unknown")
	require.Error(t, err)
}

func TestLoginChecker_IsLogged(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	checker := NewLoginChecker(time.Hour, db)

	freshKey := sessionKeyPrefix + "fresh"
	mock.ExpectGet(freshKey).SetVal(fmt.Sprintf("%d", time.Now().Unix()))
	logged, err := checker.IsLogged(context.Background(), "fresh")
	require.NoError(t, err)
	assert.True(t, logged)

	// session older than the ttl reads as logged out
	staleKey := sessionKeyPrefix + "stale"
	mock.ExpectGet(staleKey).SetVal(fmt.Sprintf("%d", time.Now().Add(-2*time.Hour).Unix()))
	logged, err = checker.IsLogged(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(t, logged)

	missingKey := sessionKeyPrefix + "missing"
	mock.ExpectGet(missingKey).RedisNil()
	_, err = checker.IsLogged(context.Background(), "missing")
	require.Error(t, err)
}

func TestLoginTestChecker(t *testing.T) {
	checker := NewLoginTestChecker()
	checker.LoggedSessions["tok"] = true

	logged, err := checker.IsLogged(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, logged)

	logged, err = checker.IsLogged(context.Background(), "other")
	require.NoError(t, err)
	assert.False(t, logged)
}
