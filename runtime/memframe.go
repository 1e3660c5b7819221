package runtime

import (
	"fmt"
)

// This module implements a stack of memory frames.
// Memory frames are used by the vault to keep track of the active scopes.
// Name resolution walks the stack from the top-most frame downwards.

// FrameKind tells how a frame has been entered, and how it has to be left.
type FrameKind int8

const (
	// BlockFrame is a frame for a block, a function call or a loop iteration.
	// Leaving it frees its record.
	BlockFrame FrameKind = iota
	// NamedFrame is a frame for a named scope. Leaving it never frees.
	NamedFrame
	// BoxedFrame is a transient block holding an autoboxed primitive.
	BoxedFrame
)

func (k FrameKind) String() string {
	switch k {
	case BlockFrame:
		return "block"
	case NamedFrame:
		return "named"
	case BoxedFrame:
		return "boxed"
	}
	return "?"
}

// MemoryFrame is a memory frame, representing an active scope record.
type MemoryFrame struct {
	Kind   FrameKind
	Record Handle
	Parent *MemoryFrame
}

func (mf *MemoryFrame) String() string {
	return fmt.Sprintf("<mem %s -> %v>", mf.Kind, mf.Record)
}

// ---------------------------------------------------------------------------

// MemoryFrameStack is a (call-)stack of memory frames.
type MemoryFrameStack struct {
	memoryFrameBase *MemoryFrame
	memoryFrameTOS  *MemoryFrame
	depth           int
}

// Current gets the current memory frame of a stack (TOS).
func (mfst *MemoryFrameStack) Current() *MemoryFrame {
	if mfst.memoryFrameTOS == nil {
		panic("attempt to access memory frame from empty stack")
	}
	return mfst.memoryFrameTOS
}

// Globals gets the outermost memory frame, containing global symbols.
func (mfst *MemoryFrameStack) Globals() *MemoryFrame {
	if mfst.memoryFrameBase == nil {
		panic("attempt to access global memory frame from empty stack")
	}
	return mfst.memoryFrameBase
}

// IsEmpty is a predicate: are there no frames on the stack?
func (mfst *MemoryFrameStack) IsEmpty() bool {
	return mfst.memoryFrameTOS == nil
}

// Depth returns the number of frames on the stack.
func (mfst *MemoryFrameStack) Depth() int {
	return mfst.depth
}

// PushNewMemoryFrame pushes a new memory frame as TOS.
func (mfst *MemoryFrameStack) PushNewMemoryFrame(kind FrameKind, h Handle) *MemoryFrame {
	newmf := &MemoryFrame{Kind: kind, Record: h, Parent: mfst.memoryFrameTOS}
	if mfst.memoryFrameTOS == nil { // the new frame is the global frame
		mfst.memoryFrameBase = newmf // make new mf anchor
	}
	mfst.memoryFrameTOS = newmf // new frame now TOS
	mfst.depth++
	return newmf
}

// PopMemoryFrame pops the top-most memory frame. Returns the popped frame.
func (mfst *MemoryFrameStack) PopMemoryFrame() *MemoryFrame {
	if mfst.memoryFrameTOS == nil {
		panic("attempt to pop memory frame from empty call stack")
	}
	mf := mfst.memoryFrameTOS
	mfst.memoryFrameTOS = mfst.memoryFrameTOS.Parent
	if mfst.memoryFrameTOS == nil {
		mfst.memoryFrameBase = nil
	}
	mfst.depth--
	return mf
}

// Each walks the stack from TOS to the bottom, until f returns false.
func (mfst *MemoryFrameStack) Each(f func(*MemoryFrame) bool) {
	for mf := mfst.memoryFrameTOS; mf != nil; mf = mf.Parent {
		if !f(mf) {
			return
		}
	}
}

// FindMemoryFrame finds the top-most memory frame of a given kind.
func (mfst *MemoryFrameStack) FindMemoryFrame(kind FrameKind) *MemoryFrame {
	mf := mfst.memoryFrameTOS
	for mf != nil {
		if mf.Kind == kind {
			return mf
		}
		mf = mf.Parent
	}
	return nil
}
