package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"stga/scene"
)

func stageOptions() StageOptions {
	return StageOptions{
		DefaultPrim:    "World",
		VariantSetName: "modelVariant",
		UpAxis:         "z",
		MetersPerUnit:  0.01,
		Generator:      "stga test",
	}
}

func buildStage(t *testing.T, records []scene.FragmentRecord, opts StageOptions) *etree.Document {
	t.Helper()
	root, _, err := Reconstruct(records, testLogger(t))
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	return EmitStage(root, opts)
}

func TestEmitStage_Defaults(t *testing.T) {
	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Table", FilePath: "Table.xml"},
	}, stageOptions())

	stage := doc.Root()
	if stage == nil || stage.Tag != "Scene" {
		t.Fatal("Stage document has no scene root")
	}
	if got := stage.SelectAttrValue("defaultPrim", ""); got != "World" {
		t.Errorf("defaultPrim = %q, want \"World\"", got)
	}
	if got := stage.SelectAttrValue("upAxis", ""); got != "z" {
		t.Errorf("upAxis = %q, want \"z\"", got)
	}
	if got := stage.SelectAttrValue("metersPerUnit", ""); got != "0.01" {
		t.Errorf("metersPerUnit = %q, want \"0.01\"", got)
	}

	world := stage.SelectElement("Prim")
	if world == nil {
		t.Fatal("Top-level prim missing")
	}
	if got := world.SelectAttrValue("name", ""); got != "World" {
		t.Errorf("Top prim name = %q, want \"World\"", got)
	}
	if got := world.SelectAttrValue("kind", ""); got != "assembly" {
		t.Errorf("Top prim kind = %q, want \"assembly\"", got)
	}

	table := world.SelectElement("Prim")
	if table == nil {
		t.Fatal("Table prim missing")
	}
	if got := table.SelectAttrValue("name", ""); got != "Table" {
		t.Errorf("name = %q, want \"Table\"", got)
	}
	if got := table.SelectAttrValue("type", ""); got != "Xform" {
		t.Errorf("type = %q, fragment-backed prims default to Xform", got)
	}
	// default values never become attributes
	for _, attr := range []string{"kind", "purpose", "active", "hidden", "instanceable", "drawMode", "assetVersion"} {
		if v := table.SelectAttrValue(attr, ""); len(v) > 0 {
			t.Errorf("Default-valued attribute %q emitted as %q", attr, v)
		}
	}

	ref := table.SelectElement("Reference")
	if ref == nil {
		t.Fatal("Reference arc missing, defaults compose by reference")
	}
	if got := ref.SelectAttrValue("file", ""); got != "Table.xml" {
		t.Errorf("Reference file = %q, want \"Table.xml\"", got)
	}
	if table.SelectElement("Payload") != nil {
		t.Error("Unexpected payload arc")
	}
}

func TestEmitStage_PropertyAttributes(t *testing.T) {
	props := scene.DefaultProperties()
	props.Kind = scene.KindComponent
	props.Payload = true
	props.Hidden = true
	props.Active = false
	props.Instanceable = true
	props.AssetVersion = "v007"
	props.DrawMode = scene.DrawModeBounds

	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Crate_PROXY", FilePath: "Crate.xml", Overrides: &props},
	}, stageOptions())

	crate := doc.Root().SelectElement("Prim").SelectElement("Prim")
	if crate == nil {
		t.Fatal("Crate prim missing")
	}

	checks := map[string]string{
		"kind":         "component",
		"purpose":      "proxy",
		"active":       "false",
		"hidden":       "true",
		"instanceable": "true",
		"assetVersion": "v007",
		"drawMode":     "bounds",
	}
	for attr, want := range checks {
		if got := crate.SelectAttrValue(attr, ""); got != want {
			t.Errorf("%s = %q, want %q", attr, got, want)
		}
	}

	if crate.SelectElement("Payload") == nil {
		t.Error("Payload flag must switch the composition arc")
	}
	if crate.SelectElement("Reference") != nil {
		t.Error("Payload-composed prim must not also reference")
	}
}

func TestEmitStage_SyntheticGroupIsScope(t *testing.T) {
	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Props"},
		{ObjectName: "Table", FilePath: "Table.xml", ParentPath: []string{"Props"}},
	}, stageOptions())

	props := doc.Root().SelectElement("Prim").SelectElement("Prim")
	if props == nil {
		t.Fatal("Props prim missing")
	}
	if got := props.SelectAttrValue("type", ""); got != "Scope" {
		t.Errorf("Container prim type = %q, want \"Scope\"", got)
	}
	if props.SelectElement("Reference") != nil || props.SelectElement("Payload") != nil {
		t.Error("Container prim must not compose a fragment")
	}
}

func TestEmitStage_VariantSet(t *testing.T) {
	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Chair_VARIANT1", FilePath: "Chair_VARIANT1.xml"},
		{ObjectName: "Chair_PROXY_VARIANT2", FilePath: "Chair_PROXY_VARIANT2.xml"},
	}, stageOptions())

	chair := doc.Root().SelectElement("Prim").SelectElement("Prim")
	if chair == nil {
		t.Fatal("Chair prim missing")
	}
	if got := chair.SelectAttrValue("name", ""); got != "Chair" {
		t.Errorf("Collapsed prim name = %q, want \"Chair\"", got)
	}

	vs := chair.SelectElement("VariantSet")
	if vs == nil {
		t.Fatal("VariantSet element missing")
	}
	if got := vs.SelectAttrValue("name", ""); got != "modelVariant" {
		t.Errorf("VariantSet name = %q, want \"modelVariant\"", got)
	}
	if got := vs.SelectAttrValue("default", ""); got != "1" {
		t.Errorf("VariantSet default = %q, want \"1\"", got)
	}

	variants := vs.SelectElements("Variant")
	if len(variants) != 2 {
		t.Fatalf("Expected 2 variants, got %d", len(variants))
	}
	if got := variants[0].SelectAttrValue("name", ""); got != "1" {
		t.Errorf("First variant = %q, want \"1\"", got)
	}
	if variants[0].SelectElement("Reference") == nil {
		t.Error("Variant member lost its composition arc")
	}
	if got := variants[1].SelectAttrValue("purpose", ""); got != "proxy" {
		t.Errorf("Second variant purpose = %q, want \"proxy\"", got)
	}
}

func TestEmitStage_VariantMemberProperties(t *testing.T) {
	props := scene.DefaultProperties()
	props.Kind = scene.KindComponent
	props.Hidden = true

	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Chair_VARIANT1", FilePath: "c1.xml", Overrides: &props},
		{ObjectName: "Chair_VARIANT2", FilePath: "c2.xml"},
	}, stageOptions())

	vs := doc.Root().SelectElement("Prim").SelectElement("Prim").SelectElement("VariantSet")
	if vs == nil {
		t.Fatal("VariantSet element missing")
	}
	variants := vs.SelectElements("Variant")
	if len(variants) != 2 {
		t.Fatalf("Expected 2 variants, got %d", len(variants))
	}

	// a member keeps its own merged properties, selecting it must apply them
	if got := variants[0].SelectAttrValue("kind", ""); got != "component" {
		t.Errorf("First variant kind = %q, want \"component\"", got)
	}
	if got := variants[0].SelectAttrValue("hidden", ""); got != "true" {
		t.Errorf("First variant hidden = %q, want \"true\"", got)
	}

	// the plain member stays free of default-valued attributes
	for _, attr := range []string{"kind", "hidden", "active", "drawMode", "assetVersion"} {
		if v := variants[1].SelectAttrValue(attr, ""); len(v) > 0 {
			t.Errorf("Second variant emitted default-valued attribute %q as %q", attr, v)
		}
	}
}

func TestEmitStage_InstanceableOnlyOnLeaves(t *testing.T) {
	props := scene.DefaultProperties()
	props.Instanceable = true

	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Props", Overrides: &props},
		{ObjectName: "Table", FilePath: "Table.xml", ParentPath: []string{"Props"}},
	}, stageOptions())

	parent := doc.Root().SelectElement("Prim").SelectElement("Prim")
	if v := parent.SelectAttrValue("instanceable", ""); len(v) > 0 {
		t.Errorf("Prim with composed children emitted instanceable = %q", v)
	}
}

func TestEmitStage_FragmentDirPrefix(t *testing.T) {
	opts := stageOptions()
	opts.FragmentDir = "../export"

	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Table", FilePath: "Table.xml"},
	}, opts)

	ref := doc.Root().SelectElement("Prim").SelectElement("Prim").SelectElement("Reference")
	if got := ref.SelectAttrValue("file", ""); got != "../export/Table.xml" {
		t.Errorf("Reference file = %q, want \"../export/Table.xml\"", got)
	}
}

func TestEmitStage_SanitizesPrimNames(t *testing.T) {
	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Old Table-01", FilePath: "t.xml"},
	}, stageOptions())

	prim := doc.Root().SelectElement("Prim").SelectElement("Prim")
	if got := prim.SelectAttrValue("name", ""); got != "Old_Table_01" {
		t.Errorf("Prim name = %q, want sanitized \"Old_Table_01\"", got)
	}
}

func TestCommitStage(t *testing.T) {
	dir := t.TempDir()
	doc := buildStage(t, []scene.FragmentRecord{
		{ObjectName: "Table", FilePath: "Table.xml"},
	}, stageOptions())

	final, err := CommitStage(doc, dir, "batch_stage.xml")
	if err != nil {
		t.Fatalf("CommitStage() error = %v", err)
	}
	if final != filepath.Join(dir, "batch_stage.xml") {
		t.Errorf("CommitStage() path = %q", final)
	}

	data, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("Reading committed stage: %v", err)
	}
	if !strings.Contains(string(data), "defaultPrim=\"World\"") {
		t.Error("Committed stage lost its metadata")
	}

	// no stray temp files
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Destination holds %d entries after commit, want only the stage", len(entries))
	}
}

func TestCommitStage_BadDestination(t *testing.T) {
	doc := etree.NewDocument()
	doc.CreateElement("Scene")

	if _, err := CommitStage(doc, filepath.Join(t.TempDir(), "absent"), "s.xml"); err == nil {
		t.Error("Expected error for missing destination directory")
	}
}
