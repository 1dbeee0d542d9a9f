// Package pagination bounds page navigation by the last known page count
// and computes the page window shown by the pagination bar.
package pagination

// Radius is how many pages on each side of the current page are listed.
const Radius = 2

// Pager is the view whose page is being navigated.
type Pager interface {
	Page() int
	TotalPages() int
	SetPage(p int) bool
}

// Item is one slot of the page window: a page number or an ellipsis.
type Item struct {
	Page     int
	Ellipsis bool
}

// Bar is the render state of the pagination control.
type Bar struct {
	Visible      bool
	Current      int
	Total        int
	PrevDisabled bool
	NextDisabled bool
	Items        []Item
}

// Controller maps page requests onto a Pager.
type Controller struct {
	pager Pager
}

// New creates a controller for pager.
func New(pager Pager) *Controller {
	return &Controller{pager: pager}
}

// RequestPage moves to page p. Pages outside [1, total] are rejected
// rather than clamped; the return value reports whether the page changed.
func (c *Controller) RequestPage(p int) bool {
	total := c.pager.TotalPages()
	if p < 1 || p > total {
		return false
	}
	return c.pager.SetPage(p)
}

// Next moves one page forward.
func (c *Controller) Next() bool {
	return c.RequestPage(c.pager.Page() + 1)
}

// Prev moves one page back.
func (c *Controller) Prev() bool {
	return c.RequestPage(c.pager.Page() - 1)
}

// Bar returns the current render state.
func (c *Controller) Bar() Bar {
	return NewBar(c.pager.Page(), c.pager.TotalPages())
}

// NewBar computes the render state for current of total pages. The bar is
// not visible at all when there is at most one page.
func NewBar(current, total int) Bar {
	if total <= 1 {
		return Bar{Current: current, Total: total}
	}
	return Bar{
		Visible:      true,
		Current:      current,
		Total:        total,
		PrevDisabled: current <= 1,
		NextDisabled: current >= total,
		Items:        Window(current, total),
	}
}

// Window lists page 1, page total and every page within Radius of current.
// A gap of exactly one page is filled in; longer gaps become an ellipsis.
func Window(current, total int) []Item {
	if total < 1 {
		return nil
	}
	current = max(1, min(current, total))

	lo := max(1, current-Radius)
	hi := min(total, current+Radius)

	pages := make([]int, 0, hi-lo+3)
	pages = append(pages, 1)
	for p := lo; p <= hi; p++ {
		if p != 1 && p != total {
			pages = append(pages, p)
		}
	}
	if total != 1 {
		pages = append(pages, total)
	}

	items := make([]Item, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		switch gap := p - prev - 1; {
		case prev == 0 || gap == 0:
		case gap == 1:
			items = append(items, Item{Page: prev + 1})
		default:
			items = append(items, Item{Ellipsis: true})
		}
		items = append(items, Item{Page: p})
		prev = p
	}
	return items
}
