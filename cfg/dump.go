package cfg

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the block with its edges and control tree links, one
// instruction per line.
func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[block %d", b.ID)
	if b.Loop {
		sb.WriteString(" loop")
	}
	if b.IsRoot() {
		sb.WriteString(" root")
	}
	sb.WriteString("]\n")

	writeList(&sb, "predecessors", b.Predecessors)
	writeList(&sb, "ctrl frontier", b.CFrontier)
	if b.CParent != nil {
		fmt.Fprintf(&sb, "# ctrl parent: %d\n", b.CParent.ID)
	}
	for _, in := range b.Instructions {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	writeList(&sb, "successors", b.Successors)
	writeList(&sb, "ctrl children", b.CChildren)
	return sb.String()
}

// String renders every root and its reachable blocks.
func (c *Cfg) String() string {
	var sb strings.Builder
	for n, r := range c.Roots {
		if n > 0 {
			sb.WriteByte('\n')
		}
		name := FunctionName(r)
		switch {
		case r == c.Root:
			name = "<program>"
		case name == "":
			name = "<anonymous>"
		}
		fmt.Fprintf(&sb, "--- root %d %s\n", r.ID, name)
		for _, b := range Reachable(r) {
			sb.WriteString(b.String())
		}
	}
	return sb.String()
}

func writeList(sb *strings.Builder, label string, list []*Block) {
	if len(list) == 0 {
		return
	}
	ids := make([]string, len(list))
	for n, b := range list {
		ids[n] = strconv.Itoa(b.ID)
	}
	fmt.Fprintf(sb, "# %s: %s\n", label, strings.Join(ids, ", "))
}
