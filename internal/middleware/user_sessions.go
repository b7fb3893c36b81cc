package middleware

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// UserSessionsPrefix keys the set of live session IDs per user.
const UserSessionsPrefix = "user_sessions:"

// TrackUserSession records sid as one of userID's sessions.
func TrackUserSession(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	return rdb.SAdd(ctx, UserSessionsPrefix+userID, sid).Err()
}

// UntrackUserSession removes sid from userID's sessions and deletes it.
func UntrackUserSession(ctx context.Context, rdb *redis.Client, userID, sid string) {
	if userID != "" {
		rdb.SRem(ctx, UserSessionsPrefix+userID, sid)
	}
	rdb.Del(ctx, SessionRedisPrefix+sid)
}

// DestroyUserSessions removes all sessions for a user so the next request
// has to log in again and picks up profile changes.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if rdb == nil || userID == "" {
		return
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil {
		for _, sid := range sessionIDs {
			rdb.Del(ctx, SessionRedisPrefix+sid)
		}
	}
	rdb.Del(ctx, key)
}
