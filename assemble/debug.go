package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"stga/scene"
)

// treeWriter accumulates an indented text rendition of the reconstructed
// hierarchy for the debug report.
type treeWriter struct {
	w *strings.Builder
}

func newTreeWriter() *treeWriter {
	return &treeWriter{
		w: &strings.Builder{},
	}
}

func (tw treeWriter) String() string {
	return tw.w.String()
}

func (tw treeWriter) Line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// DumpTree renders the reconstructed hierarchy as text, children in natural
// name order so dumps diff cleanly between runs.
func DumpTree(root *Node) string {
	tw := newTreeWriter()
	tw.Line(0, "stage root")
	dumpChildren(tw, root, 1)
	return tw.String()
}

func dumpChildren(tw *treeWriter, node *Node, depth int) {
	children := make([]*Node, len(node.Children))
	copy(children, node.Children)
	sort.SliceStable(children, func(i, j int) bool {
		return natural.Less(children[i].Name, children[j].Name)
	})
	for _, child := range children {
		dumpNode(tw, child, depth)
	}
}

func dumpNode(tw *treeWriter, node *Node, depth int) {
	tw.Line(depth, "%s%s", node.Name, describeNode(node))
	if node.Variants != nil {
		for _, member := range node.Variants.Members {
			marker := ""
			if member.Selector == node.Variants.Default {
				marker = " *"
			}
			tw.Line(depth+1, "variant %s%s%s", member.Selector, describeNode(member.Node), marker)
			dumpChildren(tw, member.Node, depth+2)
		}
	}
	dumpChildren(tw, node, depth+1)
}

func describeNode(node *Node) string {
	var parts []string
	if node.Fragment != nil && len(node.Fragment.FilePath) > 0 {
		parts = append(parts, "file="+node.Fragment.FilePath)
	}
	props := node.Properties
	if props.Kind != scene.KindNone {
		parts = append(parts, "kind="+props.Kind.String())
	}
	if props.Purpose != scene.PurposeDefault {
		parts = append(parts, "purpose="+props.Purpose.String())
	}
	if props.Payload {
		parts = append(parts, "payload")
	}
	if props.Instanceable {
		parts = append(parts, "instanceable")
	}
	if !props.Active {
		parts = append(parts, "inactive")
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, " ") + "]"
}
