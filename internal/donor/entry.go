package donor

// entry is one cached lookup.  donor is nil for a cached miss.
type entry struct {
	donor    *Donor
	loadedAt int64 // UnixNano
	lastSeen int64 // UnixNano, atomic
}
