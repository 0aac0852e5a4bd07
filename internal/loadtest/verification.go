package loadtest

import (
	"errors"
	"fmt"

	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
)

var (
	// ErrNoSearch means the last turn of a flow did not run a search.
	ErrNoSearch = errors.New("flow did not end in a search")
	// ErrBadRanking means a returned list breaks the ranking contract.
	ErrBadRanking = errors.New("inconsistent ranking")
)

// verifyReply checks the reply to the final discovery turn: the action is
// SEARCH, ranks run 1..n, match scores never increase and no repository
// appears twice.
func verifyReply(reply types.ChatReply) error {
	if reply.Action != "SEARCH" || reply.Search == nil {
		return fmt.Errorf("%w: action %q directive %q", ErrNoSearch, reply.Action, reply.Directive)
	}
	seen := make(map[string]struct{}, len(reply.Search.Entries))
	for i, e := range reply.Search.Entries {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrBadRanking, i, e.Rank)
		}
		if i > 0 && e.MatchScore > reply.Search.Entries[i-1].MatchScore {
			return fmt.Errorf("%w: %s scores above %s", ErrBadRanking, e.RepoID, reply.Search.Entries[i-1].RepoID)
		}
		if _, dup := seen[e.RepoID]; dup {
			return fmt.Errorf("%w: %s listed twice", ErrBadRanking, e.RepoID)
		}
		seen[e.RepoID] = struct{}{}
	}
	if !reply.Search.Exhausted && reply.Search.StopReason != "target_reached" {
		return fmt.Errorf("%w: not exhausted but stopped by %s", ErrBadRanking, reply.Search.StopReason)
	}
	return nil
}
