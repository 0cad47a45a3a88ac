package content

import (
	"strconv"

	"git.home.luguber.info/inful/bang/internal/urls"
)

// Pager is one page of the paginated index. Page 1 lives at the output
// root and page n at page/n/. Next points toward page 1 and Prev toward
// older pages.
type Pager struct {
	Number int
	Total  int
	Items  []*Item
}

// Paginate splits items into pages of limit items. There is always at
// least one page, so an empty site still gets an index.
func Paginate(items []*Item, limit int) []*Pager {
	chunks := chunk(items, limit)
	if len(chunks) == 0 {
		chunks = [][]*Item{nil}
	}
	out := make([]*Pager, len(chunks))
	for i, c := range chunks {
		out[i] = &Pager{Number: i + 1, Total: len(chunks), Items: c}
	}
	return out
}

// PagerRel is the output directory of page n.
func PagerRel(n int) string {
	if n <= 1 {
		return ""
	}
	return "page/" + strconv.Itoa(n)
}

func (p *Pager) OutputRel() string { return PagerRel(p.Number) }

// URL returns the page URL under baseURL.
func (p *Pager) URL(baseURL string) string {
	if p.Number <= 1 {
		return baseURL + "/"
	}
	return urls.Join(baseURL, PagerRel(p.Number)) + "/"
}

func (p *Pager) HasNext() bool { return p.Number > 1 }
func (p *Pager) HasPrev() bool { return p.Number < p.Total }

// NextURL is the URL of the newer page, "" on page 1.
func (p *Pager) NextURL(baseURL string) string {
	if !p.HasNext() {
		return ""
	}
	return (&Pager{Number: p.Number - 1}).URL(baseURL)
}

// PrevURL is the URL of the older page, "" on the last page.
func (p *Pager) PrevURL(baseURL string) string {
	if !p.HasPrev() {
		return ""
	}
	return (&Pager{Number: p.Number + 1}).URL(baseURL)
}
