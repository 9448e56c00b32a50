package memory

import "time"

// evictionPolicy selects the next victim when a level is over capacity.
// Implementations are pure selection logic; the LevelStore performs the
// actual removal under its write lock.
type evictionPolicy interface {
	// victim returns the id of the record to evict. records is non-empty.
	// incoming is the item whose insertion triggered the eviction.
	victim(records map[string]*record, incoming *Item) string
	name() string
}

// policyForLevel returns the eviction policy variant for a level.
func policyForLevel(level Level) evictionPolicy {
	switch level {
	case LevelImmediate:
		return sessionFIFOPolicy{}
	case LevelShortTerm:
		return lruPolicy{}
	default:
		return priorityLRUPolicy{}
	}
}

// sessionFIFOPolicy is the Immediate policy: strict FIFO within the
// incoming item's session; if the session has no other items, the globally
// oldest item goes.
type sessionFIFOPolicy struct{}

func (sessionFIFOPolicy) name() string { return "session_fifo" }

func (sessionFIFOPolicy) victim(records map[string]*record, incoming *Item) string {
	session := ""
	if incoming != nil {
		session = incoming.SessionID
	}

	if id := oldestCreated(records, func(r *record) bool {
		return r.item.SessionID == session && r.item.ID != incomingID(incoming)
	}); id != "" {
		return id
	}
	return oldestCreated(records, func(r *record) bool {
		return r.item.ID != incomingID(incoming)
	})
}

// lruPolicy is the ShortTerm policy: least-recently-accessed goes first.
// TTL expiry has already been applied by the LevelStore before capacity
// eviction runs.
type lruPolicy struct{}

func (lruPolicy) name() string { return "lru" }

func (lruPolicy) victim(records map[string]*record, incoming *Item) string {
	var victimID string
	var victimAccess time.Time
	for id, r := range records {
		if id == incomingID(incoming) {
			continue
		}
		access := r.lastAccess()
		if victimID == "" || access.Before(victimAccess) {
			victimID, victimAccess = id, access
		}
	}
	if victimID == "" {
		victimID = oldestCreated(records, func(*record) bool { return true })
	}
	return victimID
}

// priorityLRUPolicy is the LongTerm policy: least-recently-accessed goes
// first; among equal access recency the lowest priority loses.
type priorityLRUPolicy struct{}

func (priorityLRUPolicy) name() string { return "priority_lru" }

func (priorityLRUPolicy) victim(records map[string]*record, incoming *Item) string {
	var victim *record
	var victimID string
	var victimAccess time.Time
	for id, r := range records {
		if id == incomingID(incoming) {
			continue
		}
		access := r.lastAccess()
		switch {
		case victim == nil,
			access.Before(victimAccess),
			access.Equal(victimAccess) && r.item.Priority < victim.item.Priority:
			victim, victimID, victimAccess = r, id, access
		}
	}
	if victimID == "" {
		victimID = oldestCreated(records, func(*record) bool { return true })
	}
	return victimID
}

// oldestCreated returns the id with the earliest CreatedAt among records
// passing the filter, or "" when none pass.
func oldestCreated(records map[string]*record, keep func(*record) bool) string {
	var oldestID string
	var oldest time.Time
	for id, r := range records {
		if !keep(r) {
			continue
		}
		if oldestID == "" || r.item.CreatedAt.Before(oldest) {
			oldestID, oldest = id, r.item.CreatedAt
		}
	}
	return oldestID
}

func incomingID(incoming *Item) string {
	if incoming == nil {
		return ""
	}
	return incoming.ID
}
