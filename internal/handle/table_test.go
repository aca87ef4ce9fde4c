package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_Layout(t *testing.T) {
	tok := makeToken(0, 1)
	assert.Equal(t, Token(1<<32|1), tok)
	assert.Equal(t, 0, tok.index())
	assert.Equal(t, uint32(1), tok.generation())
	assert.Equal(t, "0/1", tok.String())

	tok = makeToken(41, 7)
	assert.Equal(t, 41, tok.index())
	assert.Equal(t, uint32(7), tok.generation())

	assert.Equal(t, -1, Token(0).index())
}

func TestTable_InsertGetRemove(t *testing.T) {
	tbl := newTable()
	a, b := &Image{width: 1}, &Image{width: 2}

	ta := tbl.insert(a)
	tb := tbl.insert(b)
	require.NotZero(t, ta)
	require.NotEqual(t, ta, tb)
	assert.Same(t, a, tbl.get(ta))
	assert.Same(t, b, tbl.get(tb))
	assert.Equal(t, 2, tbl.count())

	got, ok := tbl.remove(ta)
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Nil(t, tbl.get(ta))
	assert.Equal(t, 1, tbl.count())

	_, ok = tbl.remove(ta)
	assert.False(t, ok, "second remove")
}

func TestTable_RejectsForeignTokens(t *testing.T) {
	tbl := newTable()
	tbl.insert(&Image{})

	for _, tok := range []Token{0, makeToken(1, 1), makeToken(0, 2), Token(1 << 32)} {
		assert.Nil(t, tbl.get(tok), "token %#x", uint64(tok))
		_, ok := tbl.remove(tok)
		assert.False(t, ok, "token %#x", uint64(tok))
	}
	assert.Equal(t, 1, tbl.count())
}

func TestTable_ReusesSlotsWithNewGeneration(t *testing.T) {
	tbl := newTable()

	first := tbl.insert(&Image{})
	tbl.remove(first)
	second := tbl.insert(&Image{})

	assert.Equal(t, first.index(), second.index())
	assert.Equal(t, first.generation()+1, second.generation())
	assert.Nil(t, tbl.get(first))
	assert.NotNil(t, tbl.get(second))
}

func TestTable_GenerationSkipsZero(t *testing.T) {
	tbl := newTable()
	tok := tbl.insert(&Image{})
	tbl.slots[tok.index()].gen = ^uint32(0)
	tok = makeToken(tok.index(), ^uint32(0))

	_, ok := tbl.remove(tok)
	require.True(t, ok)
	assert.Equal(t, uint32(1), tbl.slots[tok.index()].gen)
}

func TestTable_Tokens(t *testing.T) {
	tbl := newTable()
	a := tbl.insert(&Image{})
	b := tbl.insert(&Image{})
	c := tbl.insert(&Image{})
	tbl.remove(b)

	assert.ElementsMatch(t, []Token{a, c}, tbl.tokens())
}
