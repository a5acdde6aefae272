// Package textclean normalizes raw document text into the cleaned form used
// for term statistics: lower-cased, accents folded to ASCII, everything but
// letters and whitespace removed, tokens lemmatized, stopwords and tokens of
// two letters or fewer dropped.
package textclean

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const minTokenLen = 3

var nonLetters = regexp.MustCompile(`[^a-z\s]+`)

// Lemmatizer reduces an inflected word to its dictionary form.
type Lemmatizer interface {
	Lemma(word string) string
}

type identityLemmatizer struct{}

func (identityLemmatizer) Lemma(word string) string { return word }

// Cleaner normalizes text. It is safe for concurrent use once built.
type Cleaner struct {
	lemmatizer Lemmatizer
	stopwords  map[string]struct{}
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLemmatizer replaces the lemmatizer.
func WithLemmatizer(l Lemmatizer) Option {
	return func(c *Cleaner) {
		c.lemmatizer = l
	}
}

// WithStopwords adds words to the stopword set.
func WithStopwords(words ...string) Option {
	return func(c *Cleaner) {
		for _, w := range words {
			c.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// New returns a Cleaner with the English stopword list and no lemmatization
// unless WithLemmatizer is given.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		lemmatizer: identityLemmatizer{},
		stopwords:  make(map[string]struct{}, len(englishStopwords)),
	}
	for _, w := range englishStopwords {
		c.stopwords[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewEnglish returns a Cleaner backed by the golem English dictionary.
func NewEnglish(opts ...Option) (*Cleaner, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("textclean: load english lemmatizer: %w", err)
	}
	return New(append([]Option{WithLemmatizer(l)}, opts...)...), nil
}

// Clean returns the normalized text as space-separated tokens.
func (c *Cleaner) Clean(text string) string {
	return strings.Join(c.Tokens(text), " ")
}

// Tokens returns the normalized tokens of text in order.
func (c *Cleaner) Tokens(text string) []string {
	if text == "" {
		return nil
	}

	text = nonLetters.ReplaceAllString(strings.ToLower(foldAccents(text)), "")

	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		lemma := strings.ToLower(c.lemmatizer.Lemma(w))
		if len(lemma) < minTokenLen || c.IsStopword(lemma) {
			continue
		}
		tokens = append(tokens, lemma)
	}
	return tokens
}

// IsStopword reports whether word is in the stopword set.
func (c *Cleaner) IsStopword(word string) bool {
	_, ok := c.stopwords[word]
	return ok
}

// foldAccents strips combining marks after canonical decomposition, so
// "café" becomes "cafe" instead of losing the accented letter entirely.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
