package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/bang/internal/plugins"
)

// PluginsCmd implements the 'plugins' command.
type PluginsCmd struct{}

func (c *PluginsCmd) Run(g *Global, _ *CLI) error {
	var out io.Writer = os.Stdout
	if g != nil && g.Out != nil {
		out = g.Out
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tTYPE\tREQUIRES\tDESCRIPTION")
	for _, p := range plugins.Builtin().List() {
		m := p.Metadata()
		deps := strings.Join(m.Dependencies, ",")
		if deps == "" {
			deps = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Name, m.Version, m.Type, deps, m.Description)
	}
	return tw.Flush()
}
