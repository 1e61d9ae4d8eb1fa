package printer

import "strings"

// buffer accumulates output with the current indentation depth.
type buffer struct {
	sb      strings.Builder
	indent  string
	depth   int
	compact bool
}

func (b *buffer) write(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
}

func (b *buffer) writeByte(c byte) {
	b.sb.WriteByte(c)
}

// newline starts a new line at the current depth.
func (b *buffer) newline() {
	if b.compact {
		return
	}
	b.sb.WriteByte('\n')
	for i := 0; i < b.depth; i++ {
		b.sb.WriteString(b.indent)
	}
}

func (b *buffer) String() string {
	return b.sb.String()
}
