package state

import (
	"time"

	"github.com/google/uuid"
)

// newLocalEnv creates a new LocalEnv instance with default values. Run ID is
// time ordered so reports and logs of consecutive runs sort naturally.
func newLocalEnv() *LocalEnv {
	env := &LocalEnv{start: time.Now()}
	if id, err := uuid.NewV7(); err == nil {
		env.RunID = id.String()
	} else {
		env.RunID = uuid.NewString()
	}
	return env
}
