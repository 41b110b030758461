package validate

import "strings"

type pathStack struct {
	parts []string
}

func (p *pathStack) push(part string) {
	p.parts = append(p.parts, part)
}

func (p *pathStack) pop() {
	if len(p.parts) == 0 {
		return
	}
	p.parts = p.parts[:len(p.parts)-1]
}

func (p *pathStack) depth() int {
	return len(p.parts)
}

func (p *pathStack) String() string {
	return p.child("")
}

// child renders the path of a child named name without pushing it.
func (p *pathStack) child(name string) string {
	total := len(name)
	for _, part := range p.parts {
		total += 1 + len(part)
	}
	var b strings.Builder
	b.Grow(total)
	for i, part := range p.parts {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(part)
	}
	if name != "" {
		if len(p.parts) > 0 {
			b.WriteByte('/')
		}
		b.WriteString(name)
	}
	return b.String()
}
