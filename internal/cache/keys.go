package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// JobStatusKey is scoped by owner so a cached status can never leak to a
// caller polling someone else's job id.
func JobStatusKey(ownerID, jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s:%s", ownerID, jobID)
}

func RateLimitKey(userID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:%s", userID)
}
