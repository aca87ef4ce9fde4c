package handle

import (
	"fmt"
	"sync"
)

// Token is the opaque reference a caller holds for an image.
//
// The low 32 bits are the slot index plus one, the high 32 bits the slot's
// generation at the time the token was issued. Token 0 is the null reference
// and never resolves.
type Token uint64

// String formats the token as index/generation for logs.
func (t Token) String() string {
	return fmt.Sprintf("%d/%d", t.index(), t.generation())
}

func makeToken(index int, gen uint32) Token {
	return Token(uint64(gen)<<32 | uint64(uint32(index+1)))
}

func (t Token) index() int         { return int(uint32(t)) - 1 }
func (t Token) generation() uint32 { return uint32(t >> 32) }

// slot holds one image. gen advances every time the slot is released, so
// tokens issued for an earlier occupant stop resolving.
type slot struct {
	img  *Image
	gen  uint32
	used bool
}

// table maps tokens to images. Only slot bookkeeping is locked; the images
// themselves are owned by whoever holds the token.
type table struct {
	mu       sync.RWMutex
	slots    []slot
	freeList []int
	live     int
}

func newTable() *table {
	return &table{
		slots:    make([]slot, 0, 64),
		freeList: make([]int, 0, 16),
	}
}

// insert stores img and returns its token.
func (t *table) insert(img *Image) Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.live++
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		s := &t.slots[idx]
		s.img = img
		s.used = true
		return makeToken(idx, s.gen)
	}

	t.slots = append(t.slots, slot{img: img, gen: 1, used: true})
	return makeToken(len(t.slots)-1, 1)
}

// get resolves tok, returning nil for the null token, a token from another
// table, or a token whose slot has since been released.
func (t *table) get(tok Token) *Image {
	if tok == 0 {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := tok.index()
	if idx < 0 || idx >= len(t.slots) {
		return nil
	}
	s := t.slots[idx]
	if !s.used || s.gen != tok.generation() {
		return nil
	}
	return s.img
}

// remove invalidates tok and returns the image it referred to.
func (t *table) remove(tok Token) (*Image, bool) {
	if tok == 0 {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := tok.index()
	if idx < 0 || idx >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[idx]
	if !s.used || s.gen != tok.generation() {
		return nil, false
	}

	img := s.img
	s.img = nil
	s.used = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	t.freeList = append(t.freeList, idx)
	t.live--
	return img, true
}

// tokens returns the tokens of every live slot.
func (t *table) tokens() []Token {
	t.mu.RLock()
	defer t.mu.RUnlock()

	toks := make([]Token, 0, t.live)
	for i, s := range t.slots {
		if s.used {
			toks = append(toks, makeToken(i, s.gen))
		}
	}
	return toks
}

func (t *table) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}
