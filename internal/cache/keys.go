package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// JobStatusKey is scoped by owner so a cached status can never be served to a
// caller the store would refuse.
func JobStatusKey(userID, jobID uuid.UUID) string {
	return fmt.Sprintf("job:status:%s:%s", userID, jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
