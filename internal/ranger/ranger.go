package ranger

import "pdf-slicer/internal/errs"

// Range - полуинтервал страниц [Begin, End), нумерация с нуля.
// Index считается с 1 в порядке выдачи.
type Range struct {
	Index      int
	Begin, End int
}

// Pages возвращает количество страниц в диапазоне.
func (r Range) Pages() int {
	return r.End - r.Begin
}

// Plan описывает нарезку документа. Сам по себе ничего не хранит,
// диапазоны вычисляются лениво через Iter.
type Plan struct {
	start, split, step, stop, total int
}

// ResolveStop подставляет конец документа вместо 0 и обрезает stop по total.
func ResolveStop(stop, total int) int {
	if stop == 0 || stop > total {
		return total
	}

	return stop
}

// New проверяет параметры и строит план. stop должен быть уже разрешён (см. ResolveStop).
func New(start, split, step, stop, total int) (*Plan, error) {
	if start < 0 {
		return nil, errs.Config("start page %d is negative", start)
	}

	if split < 1 {
		return nil, errs.Config("pages per slice must be at least 1, got %d", split)
	}

	if step < 0 {
		return nil, errs.Config("skip must not be negative, got %d", step)
	}

	if stop > total {
		stop = total
	}

	if start > stop {
		return nil, errs.Config("start after stop")
	}

	return &Plan{start: start, split: split, step: step, stop: stop, total: total}, nil
}

// Iter возвращает новый курсор с начала плана. Курсоры независимы.
func (p *Plan) Iter() *Cursor {
	return &Cursor{plan: p, cur: p.start}
}

// Ranges материализует весь план.
func (p *Plan) Ranges() []Range {
	out := make([]Range, 0, p.Len())

	it := p.Iter()
	for r, ok := it.Next(); ok; r, ok = it.Next() {
		out = append(out, r)
	}

	return out
}

// Len - количество срезов в плане.
func (p *Plan) Len() int {
	n := 0

	it := p.Iter()
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		n++
	}

	return n
}

// Pages - сколько страниц попадёт во все срезы вместе.
func (p *Plan) Pages() int {
	n := 0

	it := p.Iter()
	for r, ok := it.Next(); ok; r, ok = it.Next() {
		n += r.Pages()
	}

	return n
}

type Cursor struct {
	plan  *Plan
	cur   int
	index int
	done  bool
}

// Next выдаёт следующий диапазон; ok=false, когда план исчерпан.
func (c *Cursor) Next() (Range, bool) {
	p := c.plan

	if c.done || c.cur >= p.stop {
		c.done = true
		return Range{}, false
	}

	c.index++

	// сравниваем с остатком окна, а не складываем: split и step могут быть до MaxInt
	end := p.stop
	if p.split < p.stop-c.cur {
		end = c.cur + p.split
	}
	r := Range{Index: c.index, Begin: c.cur, End: end}

	// последний срез дошёл до границы
	if end == p.stop {
		c.done = true
		return r, true
	}

	if p.step < p.total-end {
		c.cur = end + p.step
	} else {
		c.cur = p.total
	}

	return r, true
}
