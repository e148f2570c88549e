package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a time-ordered id tagged with prefix, e.g. "audit-0192...".
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}
