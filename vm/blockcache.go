package vm

import (
	"github.com/rs/xid"

	"github.com/sarchlab/aarch64run/codegen"
)

// cachedBlock is one compiled basic block plus the trace tag used by
// -v diagnostics to identify it across runs without printing a raw
// pointer or the starting address twice.
type cachedBlock struct {
	id   xid.ID
	code codegen.CompiledBlock
}

// blockCache enforces the "at most one compilation per ip" policy: the
// executor decodes, lifts, and compiles a basic block the first time its
// starting ip is reached, then replays the compiled closure on every
// subsequent visit. It is never invalidated — self-modifying code is out
// of scope (see §5's Non-goals).
type blockCache struct {
	blocks map[uint64]cachedBlock
}

func newBlockCache() *blockCache {
	return &blockCache{blocks: make(map[uint64]cachedBlock)}
}

// lookup returns the block cached for ip, if any.
func (c *blockCache) lookup(ip uint64) (codegen.CompiledBlock, xid.ID, bool) {
	b, ok := c.blocks[ip]
	if !ok {
		return nil, xid.ID{}, false
	}
	return b.code, b.id, true
}

// insert caches code under ip and returns the trace tag minted for it.
func (c *blockCache) insert(ip uint64, code codegen.CompiledBlock) xid.ID {
	id := xid.New()
	c.blocks[ip] = cachedBlock{id: id, code: code}
	return id
}

// size reports how many distinct blocks have been compiled so far.
func (c *blockCache) size() int {
	return len(c.blocks)
}
