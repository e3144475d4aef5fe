package console

// seqGuard hands out monotonic fetch tokens so a slow response cannot
// overwrite data from a newer fetch. Pages are single-owner, so no
// locking is needed.
type seqGuard struct {
	seq uint64
}

// next starts a new fetch and invalidates all earlier tokens.
func (g *seqGuard) next() uint64 {
	g.seq++
	return g.seq
}

// current reports whether the token still belongs to the newest fetch.
func (g *seqGuard) current(token uint64) bool {
	return token == g.seq
}
