package assemble

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"

	"stga/scene"
)

// Stage document element and attribute names. The stage uses the same prim
// vocabulary as the fragment files so downstream consumers need one parser.
const (
	elemScene      = "Scene"
	elemPrim       = "Prim"
	elemReference  = "Reference"
	elemPayload    = "Payload"
	elemVariantSet = "VariantSet"
	elemVariant    = "Variant"

	attrName          = "name"
	attrType          = "type"
	attrDefaultPrim   = "defaultPrim"
	attrUpAxis        = "upAxis"
	attrMetersPerUnit = "metersPerUnit"
	attrStartTimeCode = "startTimeCode"
	attrEndTimeCode   = "endTimeCode"
	attrFPS           = "framesPerSecond"
	attrGenerator     = "generator"
	attrSession       = "session"
	attrKind          = "kind"
	attrPurpose       = "purpose"
	attrActive        = "active"
	attrHidden        = "hidden"
	attrInstanceable  = "instanceable"
	attrAssetVersion  = "assetVersion"
	attrDrawMode      = "drawMode"
	attrFile          = "file"
	attrDefault       = "default"

	typeXform = "Xform"
	typeScope = "Scope"
)

// StageOptions parameterizes stage emission; values come from the stage
// configuration section and the command line, resolved once per batch.
type StageOptions struct {
	DefaultPrim     string   // top-level prim name, never empty
	VariantSetName  string   // variant set name on collapsed prims
	UpAxis          string
	MetersPerUnit   float64
	StartTimeCode   *float64 // optional stage time range
	EndTimeCode     *float64
	FramesPerSecond *float64
	Generator       string // tool tag recorded on the stage
	Session         string // batch session id
	FragmentDir     string // path from the stage file to the fragment files
}

// EmitStage renders the reconstructed tree into a stage document. The whole
// tree sits under a single top-level assembly prim named by DefaultPrim;
// the input root's own name and properties are ignored, only its children
// matter.
func EmitStage(root *Node, opts StageOptions) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	stage := doc.CreateElement(elemScene)
	stage.CreateAttr(attrDefaultPrim, opts.DefaultPrim)
	stage.CreateAttr(attrUpAxis, opts.UpAxis)
	stage.CreateAttr(attrMetersPerUnit, formatFloat(opts.MetersPerUnit))
	if opts.StartTimeCode != nil {
		stage.CreateAttr(attrStartTimeCode, formatFloat(*opts.StartTimeCode))
	}
	if opts.EndTimeCode != nil {
		stage.CreateAttr(attrEndTimeCode, formatFloat(*opts.EndTimeCode))
	}
	if opts.FramesPerSecond != nil {
		stage.CreateAttr(attrFPS, formatFloat(*opts.FramesPerSecond))
	}
	if len(opts.Generator) > 0 {
		stage.CreateAttr(attrGenerator, opts.Generator)
	}
	if len(opts.Session) > 0 {
		stage.CreateAttr(attrSession, opts.Session)
	}

	world := stage.CreateElement(elemPrim)
	world.CreateAttr(attrName, scene.ValidPrimName(opts.DefaultPrim))
	world.CreateAttr(attrType, typeXform)
	world.CreateAttr(attrKind, scene.KindAssembly.String())

	for _, child := range root.Children {
		emitNode(world, child, opts)
	}
	return doc
}

// emitProperties writes the resolved property set as attributes, defaults
// suppressed so a plain prim stays a plain element.
func emitProperties(el *etree.Element, node *Node) {
	props := node.Properties
	if props.Kind != scene.KindNone {
		el.CreateAttr(attrKind, props.Kind.String())
	}
	if props.Purpose != scene.PurposeDefault {
		el.CreateAttr(attrPurpose, props.Purpose.String())
	}
	if !props.Active {
		el.CreateAttr(attrActive, "false")
	}
	if props.Hidden {
		el.CreateAttr(attrHidden, "true")
	}
	// Instancing a prim with extra composed children would make those
	// children uneditable downstream, so the flag only sticks on leaves.
	if props.Instanceable && len(node.Children) == 0 && node.Variants == nil {
		el.CreateAttr(attrInstanceable, "true")
	}
	if len(props.AssetVersion) > 0 {
		el.CreateAttr(attrAssetVersion, props.AssetVersion)
	}
	if props.DrawMode != scene.DrawModeDefault {
		el.CreateAttr(attrDrawMode, props.DrawMode.String())
	}
}

func emitNode(parent *etree.Element, node *Node, opts StageOptions) {
	el := parent.CreateElement(elemPrim)
	el.CreateAttr(attrName, scene.ValidPrimName(node.Name))
	el.CreateAttr(attrType, primType(node))
	emitProperties(el, node)

	if node.Fragment != nil && len(node.Fragment.FilePath) > 0 {
		arc := elemReference
		if node.Properties.Payload {
			arc = elemPayload
		}
		el.CreateElement(arc).CreateAttr(attrFile, fragmentPath(opts.FragmentDir, node.Fragment.FilePath))
	}

	if node.Variants != nil {
		vs := el.CreateElement(elemVariantSet)
		vs.CreateAttr(attrName, opts.VariantSetName)
		vs.CreateAttr(attrDefault, node.Variants.Default)
		for _, member := range node.Variants.Members {
			v := vs.CreateElement(elemVariant)
			v.CreateAttr(attrName, member.Selector)
			emitVariantContent(v, member.Node, opts)
		}
	}

	for _, child := range node.Children {
		emitNode(el, child, opts)
	}
}

// emitVariantContent inlines one variant member into its Variant element.
// The member's own prim wrapper is elided, the holder prim already names the
// collapsed object; its resolved properties, composition arc and children
// all land on the Variant element so selecting it applies the full member.
func emitVariantContent(parent *etree.Element, node *Node, opts StageOptions) {
	emitProperties(parent, node)
	if node.Fragment != nil && len(node.Fragment.FilePath) > 0 {
		arc := elemReference
		if node.Properties.Payload {
			arc = elemPayload
		}
		parent.CreateElement(arc).CreateAttr(attrFile, fragmentPath(opts.FragmentDir, node.Fragment.FilePath))
	}
	for _, child := range node.Children {
		emitNode(parent, child, opts)
	}
}

// CommitStage writes the document to dir/name through a temporary file in
// the same directory, renaming only on full success so a failed batch never
// leaves a partial stage behind.
func CommitStage(doc *etree.Document, dir, name string) (string, error) {
	doc.Indent(2)

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("unable to create temporary stage file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = doc.WriteTo(tmp); err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}

	final := filepath.Join(dir, name)
	if err == nil {
		err = os.Rename(tmpName, final)
	}
	if err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("unable to commit stage file %q: %w", final, err)
	}
	return final, nil
}

func primType(node *Node) string {
	switch node.Properties.GeomType {
	case scene.GeomTypeXform:
		return typeXform
	case scene.GeomTypeScope:
		return typeScope
	}
	if node.Fragment != nil {
		return typeXform
	}
	return typeScope
}

// fragmentPath joins the stage-relative fragment directory with the sidecar
// file path, always with forward slashes.
func fragmentPath(dir, file string) string {
	file = filepath.ToSlash(file)
	if len(dir) == 0 {
		return file
	}
	return path.Join(filepath.ToSlash(dir), file)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
