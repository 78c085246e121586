package tui

// pager tracks a cursor over a paged list. Movement methods report whether
// the page changed so screens backed by a query know to reload.
type pager struct {
	offset int
	cursor int
	size   int
	total  int
}

func newPager(size int) pager {
	return pager{size: size}
}

// rows is the number of rows on the current page
func (p pager) rows() int {
	return max(min(p.size, p.total-p.offset), 0)
}

func (p *pager) up() bool {
	if p.cursor > 0 {
		p.cursor--
		return false
	}
	if p.offset == 0 {
		return false
	}
	p.offset = max(p.offset-p.size, 0)
	p.cursor = p.size - 1
	return true
}

func (p *pager) down() bool {
	if p.cursor < p.rows()-1 {
		p.cursor++
		return false
	}
	if p.offset+p.rows() >= p.total {
		return false
	}
	p.offset += p.size
	p.cursor = 0
	return true
}

func (p *pager) pageUp() bool {
	if p.offset == 0 {
		return false
	}
	p.offset = max(p.offset-p.size, 0)
	p.cursor = 0
	return true
}

func (p *pager) pageDown() bool {
	if p.offset+p.size >= p.total {
		return false
	}
	p.offset += p.size
	p.cursor = 0
	return true
}

func (p *pager) reset() {
	p.offset, p.cursor = 0, 0
}

// setTotal updates the row count and keeps the cursor on the page
func (p *pager) setTotal(total int) {
	p.total = total
	if p.offset >= total {
		p.offset = max(total-p.size, 0)
	}
	p.cursor = min(p.cursor, max(p.rows()-1, 0))
}

// move applies a navigation key and reports whether it was one and whether
// the page changed
func (p *pager) move(key string) (handled, pageChanged bool) {
	switch key {
	case "up", "k":
		return true, p.up()
	case "down", "j":
		return true, p.down()
	case "pgup":
		return true, p.pageUp()
	case "pgdown":
		return true, p.pageDown()
	}
	return false, false
}
