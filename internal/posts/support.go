package posts

import (
	"time"

	"github.com/google/uuid"
)

// utcClock truncates to microseconds, the finest precision Postgres keeps, so a
// returned record compares equal to the stored one.
type utcClock struct{}

func NewSystemClock() Clock { return utcClock{} }

func (utcClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// uuidGenerator issues time-ordered v7 ids so newer posts sort last by id as well.
type uuidGenerator struct{}

func NewUUIDGenerator() IDGenerator { return uuidGenerator{} }

func (uuidGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
