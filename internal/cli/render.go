package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/centraunit/scopegraph"
	"github.com/fatih/color"
)

var (
	idColor       = color.New(color.FgYellow)
	ownedColor    = color.New(color.FgGreen)
	inheritColor  = color.New(color.FgBlue)
	emptyColor    = color.New(color.Faint)
	producerColor = color.New(color.FgMagenta)
)

// renderTree prints one line per container, indented by depth.
func renderTree(w io.Writer, root *scopegraph.Container) {
	root.Walk(func(c *scopegraph.Container, depth int) {
		fmt.Fprint(w, strings.Repeat("  ", depth))
		idColor.Fprint(w, shortID(c))

		owned := c.OwnedProducers()
		if len(owned) == 0 && c.InheritedCount() == 0 {
			emptyColor.Fprintln(w, " (empty)")
			return
		}
		names := make([]string, len(owned))
		for i, p := range owned {
			names[i] = p.String()
		}
		ownedColor.Fprintf(w, " owns [%s]", strings.Join(names, ", "))
		if n := c.InheritedCount(); n > 0 {
			inheritColor.Fprintf(w, " borrows %d", n)
		}
		fmt.Fprintln(w)
	})
}

// renderUsage prints how many containers own a value of each producer.
func renderUsage(w io.Writer, producers []*scopegraph.Producer) {
	for _, p := range producers {
		producerColor.Fprintf(w, "%-16s", p.String())
		fmt.Fprintf(w, " scope=%-10s in use=%d\n", p.Scope(), p.InUse())
	}
}

func shortID(c *scopegraph.Container) string {
	id := c.ID()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
