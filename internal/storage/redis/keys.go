package redis

import (
	"fmt"

	"github.com/mcoot/paddle-arena/internal/model"
)

// Key prefix for all arena data
const keyPrefix = "arena"

// snapshotKey returns the Redis key for a session snapshot
func snapshotKey(id model.GameID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// snapshotIndexKey returns the Redis key for the SET of stored session ids
func snapshotIndexKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}

// chatKey returns the Redis key for a player's chat history LIST
func chatKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:chat:%s", keyPrefix, playerID)
}
