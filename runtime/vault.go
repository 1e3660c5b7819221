package runtime

import (
	"fmt"
	"sort"

	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/npillmayer/symboscript"
)

// Handle addresses a scope record of a vault. Handles are generation checked:
// after a record has been freed, every handle to it is stale, even if its slot
// has been re-used for a new record. The zero handle is never valid.
type Handle struct {
	index      uint32
	generation uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.index, h.generation)
}

// IsNull is a predicate: is this the zero handle?
func (h Handle) IsNull() bool {
	return h.generation == 0
}

// scopeRecord holds the bindings of a scope, together with the named scopes
// it owns. Owned scopes are freed together with their owner.
type scopeRecord struct {
	path   string
	parent Handle // for diagnostics only
	values *SymbolTable
	owned  *arraylist.List // of Handle
	blocks int            // counter for naming child blocks
}

type slot struct {
	generation uint32
	record     *scopeRecord // nil if free
}

// Vault is the scope store of the interpreter. It is an arena of scope
// records, addressed by handles, together with a stack of active scopes.
//
// Records are created by entering a block or declaring a named scope. The
// only way to free records is ExitBlock, which frees the block's record and,
// recursively, every named scope it owns.
//
// Name resolution walks the stack of active frames from the innermost to the
// outermost one. This is dynamic scoping: the bindings visible to a function
// body are those of its call chain.
type Vault struct {
	slots  []slot
	free   []uint32
	frames MemoryFrameStack
	roots  int
	live   int
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		slots: make([]slot, 0, 64),
	}
}

func (v *Vault) alloc(parent Handle, path string) Handle {
	rec := &scopeRecord{
		path:   path,
		parent: parent,
		values: NewSymbolTable(),
		owned:  arraylist.New(),
	}
	var h Handle
	if n := len(v.free); n > 0 {
		h.index = v.free[n-1]
		v.free = v.free[:n-1]
	} else {
		h.index = uint32(len(v.slots))
		v.slots = append(v.slots, slot{})
	}
	s := &v.slots[h.index]
	s.generation++
	s.record = rec
	h.generation = s.generation
	v.live++
	tracer().P("scope", path).Debugf("alloc %v", h)
	return h
}

// release frees a record and, depth-first, every record it owns.
func (v *Vault) release(h Handle) {
	rec, err := v.record(h)
	if err != nil {
		tracer().Errorf("release of %v: %v", h, err)
		return
	}
	it := rec.owned.Iterator()
	for it.Next() {
		v.release(it.Value().(Handle))
	}
	tracer().P("scope", rec.path).Debugf("free %v", h)
	s := &v.slots[h.index]
	s.record = nil
	s.generation++ // invalidate outstanding handles
	v.free = append(v.free, h.index)
	v.live--
}

func (v *Vault) record(h Handle) (*scopeRecord, error) {
	if h.IsNull() || int(h.index) >= len(v.slots) {
		return nil, symboscript.Errorf(symboscript.StaleHandle, symboscript.Span{},
			"invalid scope handle %v", h)
	}
	s := v.slots[h.index]
	if s.record == nil || s.generation != h.generation {
		return nil, symboscript.Errorf(symboscript.StaleHandle, symboscript.Span{},
			"scope %v does not exist any more", h)
	}
	return s.record, nil
}

// mustRecord is used for records on the frame stack, which are live by
// construction.
func (v *Vault) mustRecord(h Handle) *scopeRecord {
	rec, err := v.record(h)
	if err != nil {
		panic(fmt.Sprintf("active scope is not live: %v", err))
	}
	return rec
}

// IsLive is a predicate: does h denote a live record?
func (v *Vault) IsLive(h Handle) bool {
	_, err := v.record(h)
	return err == nil
}

// Live returns the number of live records.
func (v *Vault) Live() int {
	return v.live
}

// Path returns the diagnostic path of a scope, e.g. "$0.Map$0.entries$0".
func (v *Vault) Path(h Handle) string {
	rec, err := v.record(h)
	if err != nil {
		return "<stale " + h.String() + ">"
	}
	return rec.path
}

// Depth returns the number of active frames.
func (v *Vault) Depth() int {
	return v.frames.Depth()
}

// Current returns the innermost active scope.
func (v *Vault) Current() Handle {
	return v.frames.Current().Record
}

// Global returns the outermost active scope.
func (v *Vault) Global() Handle {
	return v.frames.Globals().Record
}

// Owner returns the innermost active block scope. Objects created by native
// routines are owned by it.
func (v *Vault) Owner() Handle {
	if mf := v.frames.FindMemoryFrame(BlockFrame); mf != nil {
		return mf.Record
	}
	return v.Global()
}

// --- Blocks ----------------------------------------------------------------

// EnterBlock creates a fresh record for a block and makes it the innermost
// scope. Every invocation creates a new record, thus recursive calls never
// share bindings.
func (v *Vault) EnterBlock() Handle {
	return v.enterBlock(BlockFrame)
}

// ExitBlock leaves the innermost block and frees its record, including every
// named scope it owns.
func (v *Vault) ExitBlock() {
	v.exitBlock(BlockFrame)
}

// EnterBoxed creates a transient block for an autoboxed primitive.
func (v *Vault) EnterBoxed() Handle {
	return v.enterBlock(BoxedFrame)
}

// ExitBoxed leaves and frees the innermost box.
func (v *Vault) ExitBoxed() {
	v.exitBlock(BoxedFrame)
}

func (v *Vault) enterBlock(kind FrameKind) Handle {
	var h Handle
	if v.frames.IsEmpty() {
		h = v.alloc(Handle{}, fmt.Sprintf("$%d", v.roots))
		v.roots++
	} else {
		parent := v.Current()
		rec := v.mustRecord(parent)
		h = v.alloc(parent, fmt.Sprintf("%s$%d", rec.path, rec.blocks))
		rec.blocks++
	}
	v.frames.PushNewMemoryFrame(kind, h)
	return h
}

func (v *Vault) exitBlock(kind FrameKind) {
	mf := v.frames.PopMemoryFrame()
	if mf.Kind != kind {
		panic(fmt.Sprintf("attempt to exit %s frame as %s", mf.Kind, kind))
	}
	v.release(mf.Record)
}

// Unwind leaves frames until depth frames are left, freeing blocks and boxes
// on the way.
func (v *Vault) Unwind(depth int) {
	for v.frames.Depth() > depth {
		mf := v.frames.PopMemoryFrame()
		if mf.Kind != NamedFrame {
			v.release(mf.Record)
		}
	}
}

// --- Named scopes ----------------------------------------------------------

// DeclareNamedScope creates a named scope as a child of the current scope and
// makes it the innermost scope. The declaration has to be completed with
// EndDeclaration.
func (v *Vault) DeclareNamedScope(name string) Handle {
	parent := v.Current()
	rec := v.mustRecord(parent)
	h := v.alloc(parent, fmt.Sprintf("%s.%s$0", rec.path, name))
	v.frames.PushNewMemoryFrame(NamedFrame, h)
	return h
}

// EndDeclaration leaves a named scope declared by DeclareNamedScope. The
// enclosing scope takes ownership of it and binds a reference to it under
// name.
func (v *Vault) EndDeclaration(h Handle, name string) {
	mf := v.frames.PopMemoryFrame()
	if mf.Kind != NamedFrame || mf.Record != h {
		panic(fmt.Sprintf("attempt to end declaration of %v, TOS is %v", h, mf))
	}
	parent := v.mustRecord(v.Current())
	parent.owned.Add(h)
	tag, _ := parent.values.ResolveOrDefineTag(name)
	tag.Value = ScopeRef(h)
}

// NewOwnedScope creates a named scope owned by owner, without activating or
// binding it.
func (v *Vault) NewOwnedScope(owner Handle, name string) (Handle, error) {
	rec, err := v.record(owner)
	if err != nil {
		return Handle{}, err
	}
	h := v.alloc(owner, fmt.Sprintf("%s.%s$0", rec.path, name))
	rec.owned.Add(h)
	return h, nil
}

// EnterNamed makes an existing named scope the innermost scope, e.g. for
// member access.
func (v *Vault) EnterNamed(h Handle) error {
	if _, err := v.record(h); err != nil {
		return err
	}
	v.frames.PushNewMemoryFrame(NamedFrame, h)
	return nil
}

// ExitNamed leaves a scope entered with EnterNamed. It never frees.
func (v *Vault) ExitNamed() {
	mf := v.frames.PopMemoryFrame()
	if mf.Kind != NamedFrame {
		panic(fmt.Sprintf("attempt to exit %s frame as named", mf.Kind))
	}
}

// --- Bindings --------------------------------------------------------------

// Resolve finds the innermost binding of a name. Returns an error of kind
// symboscript.UnboundName if there is none.
func (v *Vault) Resolve(name string) (*Tag, error) {
	var tag *Tag
	v.frames.Each(func(mf *MemoryFrame) bool {
		tag = v.mustRecord(mf.Record).values.ResolveTag(name)
		return tag == nil
	})
	if tag == nil {
		return nil, symboscript.Errorf(symboscript.UnboundName, symboscript.Span{},
			"`%s` is not defined", name)
	}
	return tag, nil
}

// Define binds a name in the innermost scope, replacing an existing binding
// of that scope.
func (v *Vault) Define(name string, val Value) *Tag {
	tag := NewTag(name).WithValue(val)
	v.mustRecord(v.Current()).values.InsertTag(tag)
	return tag
}

// DefineIn binds or re-binds a name in a given scope.
func (v *Vault) DefineIn(h Handle, name string, val Value) (*Tag, error) {
	rec, err := v.record(h)
	if err != nil {
		return nil, err
	}
	tag, _ := rec.values.ResolveOrDefineTag(name)
	tag.Value = val
	return tag, nil
}

// Lookup finds a binding in a given scope only. Returns a nil tag if the
// name is not bound there.
func (v *Vault) Lookup(h Handle, name string) (*Tag, error) {
	rec, err := v.record(h)
	if err != nil {
		return nil, err
	}
	return rec.values.ResolveTag(name), nil
}

// Unbind removes the innermost binding of a name. Scopes are never freed by
// unbinding. Returns false if the name is not bound.
func (v *Vault) Unbind(name string) bool {
	removed := false
	v.frames.Each(func(mf *MemoryFrame) bool {
		removed = v.mustRecord(mf.Record).values.RemoveTag(name) != nil
		return !removed
	})
	return removed
}

// Bindings returns the symbol table of a scope.
func (v *Vault) Bindings(h Handle) (*SymbolTable, error) {
	rec, err := v.record(h)
	if err != nil {
		return nil, err
	}
	return rec.values, nil
}

// --- Snapshots -------------------------------------------------------------

// RecordInfo describes a live scope record.
type RecordInfo struct {
	Path  string
	Names []string
	Owned []string
}

// Snapshot describes all live records of a vault, ordered by path.
func (v *Vault) Snapshot() []RecordInfo {
	infos := make([]RecordInfo, 0, v.live)
	for _, s := range v.slots {
		if s.record == nil {
			continue
		}
		info := RecordInfo{
			Path:  s.record.path,
			Names: s.record.values.Names(),
		}
		it := s.record.owned.Iterator()
		for it.Next() {
			info.Owned = append(info.Owned, v.Path(it.Value().(Handle)))
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})
	return infos
}

// Fingerprint hashes the snapshot of a vault. Vaults with equal sets of live
// records have equal fingerprints.
func (v *Vault) Fingerprint() string {
	snapshot := struct {
		Records []RecordInfo
	}{
		Records: v.Snapshot(),
	}
	hash, err := structhash.Hash(snapshot, 1)
	if err != nil {
		tracer().Errorf("cannot hash vault snapshot: %v", err)
		return ""
	}
	return hash
}
