// Package graph renders the hub's probe-to-meter wiring for inspection.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kestrelml/gantry/pkg/instrument"
)

// GenerateMermaid produces a Mermaid flowchart of the hub wiring:
// namespaces as circles, argument paths as rectangles, subscribers as
// subroutines. Stage-filtered subscriptions use dotted arrows labeled with
// the stage.
func GenerateMermaid(hub *instrument.Hub) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	namespaces := make(map[string]bool)
	pathNodes := make(map[string]bool)

	for i, sub := range hub.Subscribers() {
		meterID := fmt.Sprintf("meter_%d", i)
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", meterID, sub.Name()))

		for _, p := range sub.Paths() {
			nsID := "ns_" + sanitizeID(p.Namespace)
			if !namespaces[nsID] {
				namespaces[nsID] = true
				sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", nsID, p.Namespace))
			}

			pathID := "path_" + sanitizeID(p.Namespace+"_"+p.Variable)
			if !pathNodes[pathID] {
				pathNodes[pathID] = true
				sb.WriteString(fmt.Sprintf("    %s[\"%s.%s\"]\n", pathID, p.Namespace, p.Variable))
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", nsID, pathID))
			}

			arrow := "-->"
			if p.Stage != "" {
				arrow = fmt.Sprintf("-. \"%s\" .->", p.Stage)
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", pathID, arrow, meterID))
		}
	}

	return sb.String()
}

// Summary returns a plain-text listing of the wiring, one subscriber per
// line, paths sorted for stable output.
func Summary(hub *instrument.Hub) string {
	var sb strings.Builder
	for _, sub := range hub.Subscribers() {
		paths := make([]string, 0, len(sub.Paths()))
		for _, p := range sub.Paths() {
			paths = append(paths, p.String())
		}
		sort.Strings(paths)
		sb.WriteString(fmt.Sprintf("%s <- %s\n", sub.Name(), strings.Join(paths, ", ")))
	}
	return sb.String()
}

func sanitizeID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "[", "_")
	s = strings.ReplaceAll(s, "]", "_")
	return s
}
