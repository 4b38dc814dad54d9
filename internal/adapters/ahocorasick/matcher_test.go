package ahocorasick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_SingleKeyword(t *testing.T) {
	m := NewMatcher([]string{"tomate"})
	assert.Equal(t, []string{"tomate"}, m.Match("qual a tara do tomate hoje"))
}

func TestMatcher_MultipleKeywordsInOrder(t *testing.T) {
	m := NewMatcher([]string{"ceasa norte", "tomate", "cebola"})
	got := m.Match("cebola e tomate da ceasa norte")
	assert.Equal(t, []string{"cebola", "tomate", "ceasa norte"}, got)
}

func TestMatcher_OverlappingKeywords(t *testing.T) {
	m := NewMatcher([]string{"caixa", "caixa grande"})
	got := m.Match("caixa grande")
	assert.ElementsMatch(t, []string{"caixa", "caixa grande"}, got)
}

func TestMatcher_WholeWordsOnly(t *testing.T) {
	m := NewMatcher([]string{"sal", "acme"})
	assert.Empty(t, m.Match("salada da acmeltda"))
	assert.Equal(t, []string{"acme"}, m.Match("acme"))
}

func TestMatcher_Dedup(t *testing.T) {
	m := NewMatcher([]string{"tomate"})
	assert.Equal(t, []string{"tomate"}, m.Match("tomate tomate tomate"))
}

func TestMatcher_Empty(t *testing.T) {
	assert.Nil(t, NewMatcher(nil).Match("tomate"))
	assert.Nil(t, NewMatcher([]string{"tomate"}).Match(""))

	m := NewMatcher([]string{"", "tomate"})
	assert.Equal(t, 1, m.Len())
}
