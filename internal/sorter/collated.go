package sorter

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collated sorts strings using locale collation rules, so that for example
// "é" orders next to "e" rather than after "z".
type Collated struct {
	Base
	tag        language.Tag
	ignoreCase bool
	numeric    bool
	col        *collate.Collator
}

// NewCollated returns a collating string sorter for the given locale.
func NewCollated(tag language.Tag) *Collated {
	c := &Collated{tag: tag}
	c.rebuild()
	return c
}

// Compare orders a and b per the current collation settings.
func (c *Collated) Compare(a, b string) int {
	return c.col.CompareString(a, b)
}

// Order reports OrderPartial: distinct strings can collate equal (for
// example under case folding).
func (c *Collated) Order() Order {
	return OrderPartial
}

// Tag returns the current locale tag.
func (c *Collated) Tag() language.Tag {
	return c.tag
}

// SetTag switches the locale and signals observers.
func (c *Collated) SetTag(tag language.Tag) {
	if c.tag == tag {
		return
	}
	c.tag = tag
	c.rebuild()
	c.Changed(ChangeDifferent)
}

// IgnoreCase reports whether case differences are folded away.
func (c *Collated) IgnoreCase() bool {
	return c.ignoreCase
}

// SetIgnoreCase toggles case folding. Folding case merges previously
// unequal strings, so the hint is less-strict; unfolding is more-strict.
func (c *Collated) SetIgnoreCase(on bool) {
	if c.ignoreCase == on {
		return
	}
	c.ignoreCase = on
	c.rebuild()
	if on {
		c.Changed(ChangeLessStrict)
	} else {
		c.Changed(ChangeMoreStrict)
	}
}

// Numeric reports whether digit runs compare by numeric value.
func (c *Collated) Numeric() bool {
	return c.numeric
}

// SetNumeric toggles numeric-aware collation ("item9" before "item10").
func (c *Collated) SetNumeric(on bool) {
	if c.numeric == on {
		return
	}
	c.numeric = on
	c.rebuild()
	c.Changed(ChangeDifferent)
}

func (c *Collated) rebuild() {
	opts := make([]collate.Option, 0, 2)
	if c.ignoreCase {
		opts = append(opts, collate.IgnoreCase)
	}
	if c.numeric {
		opts = append(opts, collate.Numeric)
	}
	c.col = collate.New(c.tag, opts...)
}
