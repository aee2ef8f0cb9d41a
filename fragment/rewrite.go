// Package fragment normalizes individual exported fragment files before
// assembly: the native exporter unconditionally wraps each fragment in a
// root container and leaves the materials scope as its sibling, neither of
// which belongs in the composed stage. Rewriting is per-file, has no
// cross-fragment dependencies and is idempotent.
package fragment

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"stga/scene"
)

// Fragment file element and attribute names. The assembler treats fragment
// internals as opaque except for these shapes.
const (
	elemScene       = "Scene"
	elemPrim        = "Prim"
	attrName        = "name"
	attrDefaultPrim = "defaultPrim"
	attrTarget      = "target"
	attrSource      = "source"
	attrPrimPath    = "prim"
)

// Options controls the rewrite; values come from the fragments section of
// the configuration, resolved once per batch.
type Options struct {
	WrapperName    string   // container the exporter inserts at fragment root
	MaterialScopes []string // scope names recognized as material containers
	NestMaterials  bool     // relocate materials under the content root
}

// Rewrite strips the exporter wrapper from the document in place: the
// wrapper's children are re-parented at document scope, the materials scope
// is nested under the content root when possible and every internal path
// that pointed through a moved container is remapped. Returns whether the
// document was modified.
//
// When the expected wrapper shape is absent the document is left untouched
// and a WrapperShapeMismatch warning is emitted - a recoverable, logged
// condition, never fatal to the batch.
func Rewrite(doc *etree.Document, name string, opts Options, log *zap.Logger) (bool, []scene.Warning) {
	root := doc.Root()
	if root == nil || root.Tag != elemScene {
		log.Warn("Fragment has no scene element, leaving unrewritten", zap.String("fragment", name))
		return false, []scene.Warning{{
			Kind:    scene.WarnWrapperShapeMismatch,
			Object:  name,
			Message: "no scene element",
		}}
	}

	wrapper := childPrimByName(root, opts.WrapperName)
	if wrapper == nil {
		log.Warn("Fragment has no wrapper container, leaving unrewritten",
			zap.String("fragment", name), zap.String("wrapper", opts.WrapperName))
		return false, []scene.Warning{{
			Kind:    scene.WarnWrapperShapeMismatch,
			Object:  name,
			Message: fmt.Sprintf("wrapper container %q not found", opts.WrapperName),
		}}
	}

	// The exporter may stack wrappers (root/root/...) depending on its
	// hierarchy mode; descend to the deepest one.
	stripPrefix := "/" + opts.WrapperName
	for {
		children := childPrims(wrapper)
		if len(children) == 1 && children[0].SelectAttrValue(attrName, "") == opts.WrapperName {
			wrapper = children[0]
			stripPrefix += "/" + opts.WrapperName
			continue
		}
		break
	}

	var content, materials []*etree.Element
	for _, child := range childPrims(wrapper) {
		if slices.Contains(opts.MaterialScopes, child.SelectAttrValue(attrName, "")) {
			materials = append(materials, child)
		} else {
			content = append(content, child)
		}
	}
	if len(content) == 0 && len(materials) == 0 {
		log.Warn("Wrapper container is empty, leaving unrewritten", zap.String("fragment", name))
		return false, []scene.Warning{{
			Kind:    scene.WarnWrapperShapeMismatch,
			Object:  name,
			Message: "wrapper container has no children",
		}}
	}

	// Materials can only nest when there is a single unambiguous content
	// root to nest them under.
	nestTarget := ""
	if opts.NestMaterials && len(content) == 1 && len(materials) > 0 {
		nestTarget = content[0].SelectAttrValue(attrName, "")
	}

	root.RemoveChild(wrapper)
	for _, child := range content {
		wrapper.RemoveChild(child)
		root.AddChild(child)
	}
	for _, child := range materials {
		wrapper.RemoveChild(child)
		if len(nestTarget) > 0 {
			content[0].AddChild(child)
		} else {
			root.AddChild(child)
		}
	}

	defaultPrim := ""
	if len(content) > 0 {
		defaultPrim = content[0].SelectAttrValue(attrName, "")
	} else {
		defaultPrim = materials[0].SelectAttrValue(attrName, "")
	}
	root.CreateAttr(attrDefaultPrim, defaultPrim)

	remapped := remapPaths(root, stripPrefix, nestTarget, opts.MaterialScopes)
	log.Debug("Fragment rewritten",
		zap.String("fragment", name), zap.String("strip", stripPrefix),
		zap.String("default_prim", defaultPrim), zap.Int("remapped", remapped))

	return true, nil
}

// RewriteFile applies Rewrite to the file at path, committing the result via
// a temporary file in the same directory so a crash never leaves a corrupted
// fragment behind.
func RewriteFile(path string, opts Options, log *zap.Logger) (bool, []scene.Warning, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return false, nil, fmt.Errorf("unable to read fragment %q: %w", path, err)
	}

	changed, warns := Rewrite(doc, filepath.Base(path), opts, log)
	if !changed {
		return false, warns, nil
	}

	doc.Indent(2)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return false, warns, fmt.Errorf("unable to create temporary fragment: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = doc.WriteTo(tmp); err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return false, warns, fmt.Errorf("unable to rewrite fragment %q: %w", path, err)
	}
	return true, warns, nil
}

// remapPath computes the new value for a path that may have pointed through
// the stripped wrapper or a moved materials scope. Returns empty string when
// the path needs no change.
func remapPath(path, stripPrefix, nestTarget string, materialScopes []string) string {
	if len(nestTarget) > 0 {
		for _, scope := range materialScopes {
			prefix := stripPrefix + "/" + scope
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return "/" + nestTarget + "/" + scope + path[len(prefix):]
			}
		}
	}
	if strings.HasPrefix(path, stripPrefix+"/") {
		return path[len(stripPrefix):]
	}
	if path == stripPrefix {
		return "/"
	}
	return ""
}

func remapPaths(root *etree.Element, stripPrefix, nestTarget string, materialScopes []string) int {
	remapped := 0
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, attr := range el.Attr {
			if attr.Key != attrTarget && attr.Key != attrSource && attr.Key != attrPrimPath {
				continue
			}
			if mapped := remapPath(attr.Value, stripPrefix, nestTarget, materialScopes); len(mapped) > 0 {
				el.CreateAttr(attr.Key, mapped)
				remapped++
			}
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return remapped
}

func childPrims(el *etree.Element) []*etree.Element {
	var prims []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == elemPrim {
			prims = append(prims, child)
		}
	}
	return prims
}

func childPrimByName(el *etree.Element, name string) *etree.Element {
	for _, child := range childPrims(el) {
		if child.SelectAttrValue(attrName, "") == name {
			return child
		}
	}
	return nil
}
