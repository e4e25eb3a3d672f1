package ui

import (
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// ConnectionRow is one peer as the operator should see it.
type ConnectionRow struct {
	PeerId      protocol.PeerId
	DisplayName string
	Role        protocol.Role
}

// RenderConnections prints every known peer as a table, sorted by display
// name so repeated renders don't visibly reshuffle rows.
func RenderConnections(rows []ConnectionRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].DisplayName < rows[j].DisplayName })

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Peer ID", "Name", "Role"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.PeerId, r.DisplayName, r.Role})
	}
	t.Render()
}

// RenderCapabilities prints one peer's advertised capabilities.
func RenderCapabilities(peer protocol.PeerId, caps []protocol.Capability) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Peer", "Capability"})
	if len(caps) == 0 {
		t.AppendRow(table.Row{peer, MutedStyle.Render("(none known yet)")})
	}
	for _, c := range caps {
		t.AppendRow(table.Row{peer, c})
	}
	t.Render()
}

// RenderFiles prints one peer's file listing grouped by type.
func RenderFiles(owner protocol.PeerId, byType map[string][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Owner", "Type", "Path"})

	types := make([]string, 0, len(byType))
	for ft := range byType {
		types = append(types, ft)
	}
	sort.Strings(types)

	for _, ft := range types {
		for _, path := range byType[ft] {
			t.AppendRow(table.Row{owner, ft, path})
		}
	}
	t.Render()
}
