// Package catalog holds the list of readable chapters.
package catalog

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed books.yaml
var booksYAML []byte

// Book is one book of the catalogue.
type Book struct {
	Name     string `yaml:"name"`
	Chapters int    `yaml:"chapters"`
}

// Chapter is a single readable unit.
type Chapter struct {
	ID     string
	Title  string
	Book   string
	Number int
}

// Catalog is an ordered list of books and their chapters.
type Catalog struct {
	books    []Book
	chapters []Chapter
	byID     map[string]int
}

// Default returns the embedded catalogue.
func Default() *Catalog {
	c, err := Parse(booksYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalogue: %v", err))
	}
	return c
}

// Parse builds a Catalog from YAML of the form {books: [{name, chapters}]}.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Books []Book `yaml:"books"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(doc.Books) == 0 {
		return nil, fmt.Errorf("catalogue has no books")
	}

	c := &Catalog{books: doc.Books, byID: make(map[string]int)}
	for _, b := range doc.Books {
		if b.Name == "" || b.Chapters < 1 {
			return nil, fmt.Errorf("invalid book %q with %d chapters", b.Name, b.Chapters)
		}
		for n := 1; n <= b.Chapters; n++ {
			ch := Chapter{
				ID:     ChapterID(b.Name, n),
				Title:  fmt.Sprintf("%s %d", b.Name, n),
				Book:   b.Name,
				Number: n,
			}
			if _, dup := c.byID[ch.ID]; dup {
				return nil, fmt.Errorf("duplicate chapter %q", ch.ID)
			}
			c.byID[ch.ID] = len(c.chapters)
			c.chapters = append(c.chapters, ch)
		}
	}
	return c, nil
}

// ChapterID returns the stable identifier of chapter n of book.
func ChapterID(book string, n int) string {
	return book + "-" + strconv.Itoa(n)
}

// Books returns the books in reading order.
func (c *Catalog) Books() []Book {
	return c.books
}

// Len returns the total number of chapters.
func (c *Catalog) Len() int {
	return len(c.chapters)
}

// Get returns a chapter by its ID.
func (c *Catalog) Get(id string) (Chapter, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Chapter{}, false
	}
	return c.chapters[i], true
}

// Lookup resolves user input such as "Alma 32", "alma-32" or "1 nephi 3"
// to a chapter.
func (c *Catalog) Lookup(input string) (Chapter, bool) {
	s := strings.Join(strings.Fields(input), " ")
	if ch, ok := c.Get(s); ok {
		return ch, true
	}

	i := strings.LastIndexAny(s, " -")
	if i <= 0 {
		return c.lookupSingle(s)
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return c.lookupSingle(s)
	}
	name := strings.TrimSpace(s[:i])
	for _, b := range c.books {
		if strings.EqualFold(b.Name, name) {
			return c.Get(ChapterID(b.Name, n))
		}
	}
	return Chapter{}, false
}

// lookupSingle accepts a bare book name for books with one chapter.
func (c *Catalog) lookupSingle(name string) (Chapter, bool) {
	for _, b := range c.books {
		if strings.EqualFold(b.Name, name) && b.Chapters == 1 {
			return c.Get(ChapterID(b.Name, 1))
		}
	}
	return Chapter{}, false
}

// Next returns the chapter following id in reading order.
func (c *Catalog) Next(id string) (Chapter, bool) {
	i, ok := c.byID[id]
	if !ok || i+1 >= len(c.chapters) {
		return Chapter{}, false
	}
	return c.chapters[i+1], true
}

// FirstUnread returns the first chapter in reading order not present in read.
func (c *Catalog) FirstUnread(read map[string]bool) (Chapter, bool) {
	for _, ch := range c.chapters {
		if !read[ch.ID] {
			return ch, true
		}
	}
	return Chapter{}, false
}

// BookProgress is the read count of one book.
type BookProgress struct {
	Book  string
	Read  int
	Total int
}

// Progress summarises how much of the catalogue has been read.
type Progress struct {
	Read  int
	Total int
	Books []BookProgress
}

// Percent returns the share of chapters read, rounded down.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Read * 100 / p.Total
}

// Progress counts read chapters per book. IDs not in the catalogue are
// ignored.
func (c *Catalog) Progress(read map[string]bool) Progress {
	p := Progress{Total: len(c.chapters)}
	for _, b := range c.books {
		bp := BookProgress{Book: b.Name, Total: b.Chapters}
		for n := 1; n <= b.Chapters; n++ {
			if read[ChapterID(b.Name, n)] {
				bp.Read++
			}
		}
		p.Read += bp.Read
		p.Books = append(p.Books, bp)
	}
	return p
}
