package pgx

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lborres/studysync/core"
)

// Adapter implements core.StorageAdapter over the gateway's pool.
// Every material and flashcard query is scoped by user_id.
type Adapter struct {
	gw *Gateway
}

var _ core.StorageAdapter = (*Adapter)(nil)

func New(gw *Gateway) *Adapter {
	return &Adapter{gw: gw}
}

func (a *Adapter) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return a.gw.Connect(ctx)
}

// parseID turns an id from the outside world into a uuid. Ids that are not
// uuids cannot exist, so callers report them as not found.
func parseID(id string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(id)
	return parsed, err == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere
func containsPattern(s string) string {
	if s == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(s) + "%"
}
