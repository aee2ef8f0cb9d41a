package assemble

import (
	"fmt"
	"slices"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"stga/scene"
)

// Node is one prim of the reconstructed hierarchy. The tree is exclusively
// owned by the assembly pass; it is acyclic by construction since nodes are
// created strictly from parent-path prefixes.
type Node struct {
	Name       string                // resolved base name, suffixes stripped
	Properties scene.PropertySet     // after merge
	Fragment   *scene.FragmentRecord // nil for synthetic grouping nodes
	Children   []*Node               // first-seen order among source fragments
	Variants   *VariantSet           // non-nil when variant siblings collapsed here
}

// VariantSet is a named collection of mutually exclusive alternatives
// carried by one collapsed node.
type VariantSet struct {
	Default string // selected member
	Members []Variant
}

// Variant is one alternative of a VariantSet, keyed by its selector label.
type Variant struct {
	Selector string
	Node     *Node
}

// DefaultSelector is the selector given to a tagless sibling collapsed into
// a variant set alongside tagged ones. It is also the default selection when
// present.
const DefaultSelector = "default"

// rawNode mirrors the original scene hierarchy one object per node, keyed by
// raw object names so variant twins stay distinct until collapsing.
type rawNode struct {
	name     string // raw object name
	record   *scene.FragmentRecord
	tags     scene.SuffixTags
	children []*rawNode
	index    map[string]*rawNode
}

func newRawNode(name string) *rawNode {
	return &rawNode{name: name, index: make(map[string]*rawNode)}
}

// Reconstruct rebuilds a rooted tree from the flat record set of one batch.
// The returned root is a synthetic node with an empty name; the emitter
// wraps it with the configured default prim.
//
// Input order is irrelevant for variant collapsing; it only defines the
// relative order of ordinary siblings.
func Reconstruct(records []scene.FragmentRecord, log *zap.Logger) (*Node, []scene.Warning, error) {
	byName := make(map[string]*scene.FragmentRecord, len(records))
	for i := range records {
		byName[records[i].ObjectName] = &records[i]
	}

	root := newRawNode("")

	var warns []scene.Warning
	resolve := func(name string) scene.SuffixTags {
		tags, w := scene.ResolveSuffixes(name)
		warns = append(warns, w...)
		return tags
	}

	for i := range records {
		rec := &records[i]

		parent := root
		for j, ancestor := range rec.ParentPath {
			arec, known := byName[ancestor]
			if !known {
				return nil, nil, fmt.Errorf("%w: fragment %q references ancestor %q not present in the batch",
					ErrIncompleteHierarchy, rec.ObjectName, ancestor)
			}
			// an ancestor sits where its own record says it sits; a path
			// that disagrees would fork a second copy of the same object
			if !slices.Equal(arec.ParentPath, rec.ParentPath[:j]) {
				return nil, nil, fmt.Errorf("%w: fragment %q places ancestor %q under %q, its own record declares %q",
					ErrIncompleteHierarchy, rec.ObjectName, ancestor, rec.ParentPath[:j], arec.ParentPath)
			}
			child, ok := parent.index[ancestor]
			if !ok {
				child = newRawNode(ancestor)
				child.tags = resolve(ancestor)
				parent.index[ancestor] = child
				parent.children = append(parent.children, child)
			}
			parent = child
		}

		node, ok := parent.index[rec.ObjectName]
		if !ok {
			node = newRawNode(rec.ObjectName)
			node.tags = resolve(rec.ObjectName)
			parent.index[rec.ObjectName] = node
			parent.children = append(parent.children, node)
		}
		if node.record != nil {
			return nil, nil, fmt.Errorf("%w: object %q placed twice under the same parent",
				ErrAmbiguousSibling, rec.ObjectName)
		}
		node.record = rec
	}

	out := &Node{Properties: scene.DefaultProperties()}
	if err := collapse(root, out, log); err != nil {
		return nil, nil, err
	}
	return out, warns, nil
}

// collapse converts the raw tree into the assembled one, folding variant
// siblings (same parent, same base name, at least one variant tag) into a
// single variant-set node.
func collapse(raw *rawNode, node *Node, log *zap.Logger) error {
	type group struct {
		members []*rawNode
		tagged  bool
	}
	groups := make(map[string]*group)
	order := make([]string, 0, len(raw.children))
	for _, child := range raw.children {
		g, ok := groups[child.tags.Base]
		if !ok {
			g = &group{}
			groups[child.tags.Base] = g
			order = append(order, child.tags.Base)
		}
		g.members = append(g.members, child)
		g.tagged = g.tagged || child.tags.HasVariant
	}

	for _, base := range order {
		g := groups[base]

		if !g.tagged {
			if len(g.members) > 1 {
				return fmt.Errorf("%w: %d siblings named %q carry no variant tags",
					ErrAmbiguousSibling, len(g.members), base)
			}
			childNode := makeNode(g.members[0])
			if err := collapse(g.members[0], childNode, log); err != nil {
				return err
			}
			node.Children = append(node.Children, childNode)
			continue
		}

		holder := &Node{
			Name:       base,
			Properties: scene.DefaultProperties(),
			Variants:   &VariantSet{},
		}
		seen := make(map[string]string, len(g.members))
		for _, member := range g.members {
			selector := member.tags.Variant
			if !member.tags.HasVariant {
				selector = DefaultSelector
			}
			if prev, dup := seen[selector]; dup {
				return fmt.Errorf("%w: variant selector %q of %q claimed by both %q and %q",
					ErrAmbiguousSibling, selector, base, prev, member.name)
			}
			seen[selector] = member.name

			if err := checkNestedVariant(member, base); err != nil {
				return err
			}

			memberNode := makeNode(member)
			if err := collapse(member, memberNode, log); err != nil {
				return err
			}
			holder.Variants.Members = append(holder.Variants.Members, Variant{
				Selector: selector,
				Node:     memberNode,
			})
		}
		sort.SliceStable(holder.Variants.Members, func(i, j int) bool {
			return natural.Less(holder.Variants.Members[i].Selector, holder.Variants.Members[j].Selector)
		})
		holder.Variants.Default = defaultSelection(holder.Variants.Members)

		node.Children = append(node.Children, holder)
		log.Debug("Collapsed variant siblings",
			zap.String("base", base), zap.Int("members", len(holder.Variants.Members)),
			zap.String("default", holder.Variants.Default))
	}
	return nil
}

func makeNode(raw *rawNode) *Node {
	node := &Node{Name: raw.tags.Base}
	if raw.record != nil {
		node.Fragment = raw.record
		node.Properties = scene.Merge(raw.record.Overrides, raw.tags)
		if len(raw.record.FilePath) == 0 {
			// container-only record, treated as pure grouping
			node.Fragment = nil
		}
	} else {
		// named ancestor that produced no own export
		node.Properties = scene.DefaultProperties()
	}
	return node
}

// checkNestedVariant rejects a variant member that parents another variant
// member of the same base name: there is no sane composition for that and
// the export is considered misauthored.
func checkNestedVariant(member *rawNode, base string) error {
	for _, child := range member.children {
		if child.tags.HasVariant && child.tags.Base == base {
			return fmt.Errorf("%w: %q cannot be nested under variant member %q",
				ErrNestedVariant, child.name, member.name)
		}
	}
	return nil
}

func defaultSelection(members []Variant) string {
	for _, m := range members {
		if m.Selector == DefaultSelector {
			return DefaultSelector
		}
	}
	// members are already in natural order, the first one carries the
	// lowest numeral
	if len(members) > 0 {
		return members[0].Selector
	}
	return ""
}
