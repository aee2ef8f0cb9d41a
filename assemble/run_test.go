package assemble

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"stga/config"
	"stga/fragment"
	"stga/scene"
	"stga/state"
)

func testConfig() *config.Config {
	return &config.Config{
		Version: 1,
		Stage: config.StageConfig{
			DefaultPrim:   "World",
			VariantSet:    "modelVariant",
			UpAxis:        "z",
			MetersPerUnit: 0.01,
		},
		Fragments: config.FragmentsConfig{
			StripWrapper:   true,
			NestMaterials:  true,
			WrapperName:    "root",
			MaterialScopes: []string{"mtl", "Looks", "Materials"},
			Cache:          true,
		},
	}
}

func testContext(t *testing.T, cfg *config.Config) context.Context {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Cfg = cfg
	env.Log = testLogger(t)
	env.DefaultPrim = cfg.Stage.DefaultPrim
	return ctx
}

func writeBatch(t *testing.T, dir string) {
	t.Helper()

	sidecar := `version: 1
fragments:
  - object: Props
  - object: Table
    file: Table.xml
    parents: [Props]
  - object: Chair_VARIANT1
    file: Chair_VARIANT1.xml
    parents: [Props]
  - object: Chair_VARIANT2
    file: Chair_VARIANT2.xml
    parents: [Props]
`
	if err := os.WriteFile(filepath.Join(dir, scene.SidecarName), []byte(sidecar), 0644); err != nil {
		t.Fatal(err)
	}

	frag := `<Scene>
  <Prim name="root">
    <Prim name="%s">
      <Binding target="/root/mtl/Wood"/>
    </Prim>
    <Prim name="mtl">
      <Prim name="Wood"/>
    </Prim>
  </Prim>
</Scene>`
	for _, name := range []string{"Table", "Chair_VARIANT1", "Chair_VARIANT2"} {
		data := strings.Replace(frag, "%s", name, 1)
		if err := os.WriteFile(filepath.Join(dir, name+".xml"), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestProcess_EndToEnd(t *testing.T) {
	src := t.TempDir()
	writeBatch(t, src)

	ctx := testContext(t, testConfig())
	env := state.EnvFromContext(ctx)

	if err := process(ctx, src, src, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	stagePath := filepath.Join(src, filepath.Base(src)+"_stage.xml")
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(stagePath); err != nil {
		t.Fatalf("Stage document missing: %v", err)
	}

	world := doc.Root().SelectElement("Prim")
	if world == nil || world.SelectAttrValue("name", "") != "World" {
		t.Fatal("Top prim missing or misnamed")
	}
	props := world.SelectElement("Prim")
	if props == nil || props.SelectAttrValue("name", "") != "Props" {
		t.Fatal("Props prim missing")
	}
	if len(props.SelectElements("Prim")) != 2 {
		t.Errorf("Props holds %d prims, want Table and collapsed Chair", len(props.SelectElements("Prim")))
	}
	if props.FindElement("./Prim[@name='Chair']/VariantSet") == nil {
		t.Error("Chair variant set missing from stage")
	}

	// fragments were normalized in place
	frag := etree.NewDocument()
	if err := frag.ReadFromFile(filepath.Join(src, "Table.xml")); err != nil {
		t.Fatal(err)
	}
	if got := frag.Root().SelectAttrValue("defaultPrim", ""); got != "Table" {
		t.Errorf("Fragment defaultPrim = %q, fragment was not rewritten", got)
	}

	// rewrite cache was created in the batch directory
	if _, err := os.Stat(filepath.Join(src, fragment.CacheName)); err != nil {
		t.Errorf("Rewrite cache missing: %v", err)
	}

	// second run fails without overwrite
	if err := process(ctx, src, src, env.Log); err == nil {
		t.Error("Expected error when destination stage already exists")
	}

	// and succeeds with it
	env.Overwrite = true
	if err := process(ctx, src, src, env.Log); err != nil {
		t.Errorf("process() with overwrite error = %v", err)
	}
}

func TestProcess_SeparateDestination(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeBatch(t, src)

	ctx := testContext(t, testConfig())
	env := state.EnvFromContext(ctx)

	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filepath.Join(dst, filepath.Base(src)+"_stage.xml")); err != nil {
		t.Fatalf("Stage document missing in destination: %v", err)
	}

	// composition arcs point back into the source directory
	ref := doc.FindElement("//Reference")
	if ref == nil {
		t.Fatal("No reference arcs emitted")
	}
	file := ref.SelectAttrValue("file", "")
	rel, err := filepath.Rel(dst, src)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.ToSlash(rel) + "/"
	if !strings.HasPrefix(file, want) {
		t.Errorf("Reference file = %q, want prefix %q", file, want)
	}
}

func TestProcess_MissingFragmentFileDegrades(t *testing.T) {
	src := t.TempDir()
	writeBatch(t, src)
	if err := os.Remove(filepath.Join(src, "Table.xml")); err != nil {
		t.Fatal(err)
	}

	ctx := testContext(t, testConfig())
	env := state.EnvFromContext(ctx)

	if err := process(ctx, src, src, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filepath.Join(src, filepath.Base(src)+"_stage.xml")); err != nil {
		t.Fatal(err)
	}

	table := doc.FindElement("//Prim[@name='Table']")
	if table == nil {
		t.Fatal("Table prim must survive as an empty group")
	}
	if table.SelectElement("Reference") != nil {
		t.Error("Missing fragment must not be referenced")
	}
}

func TestProcess_NoSidecar(t *testing.T) {
	src := t.TempDir()

	ctx := testContext(t, testConfig())
	env := state.EnvFromContext(ctx)

	if err := process(ctx, src, src, env.Log); err == nil {
		t.Error("Expected error for batch without sidecar")
	}
}

func TestProcess_FatalErrorCommitsNothing(t *testing.T) {
	src := t.TempDir()
	sidecar := `version: 1
fragments:
  - object: Prop
    file: a.xml
  - object: Prop_RENDER
    file: b.xml
`
	if err := os.WriteFile(filepath.Join(src, scene.SidecarName), []byte(sidecar), 0644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.xml", "b.xml"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(`<Scene><Prim name="root"><Prim name="P"/></Prim></Scene>`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ctx := testContext(t, testConfig())
	env := state.EnvFromContext(ctx)

	if err := process(ctx, src, src, env.Log); err == nil {
		t.Fatal("Expected ambiguous sibling error")
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_stage.xml") {
			t.Errorf("Fatal error still committed a stage file: %s", e.Name())
		}
	}
}

func TestDumpTree(t *testing.T) {
	records := []scene.FragmentRecord{
		{ObjectName: "Props"},
		{ObjectName: "Chair_VARIANT1", FilePath: "c1.xml", ParentPath: []string{"Props"}},
		{ObjectName: "Chair_VARIANT2", FilePath: "c2.xml", ParentPath: []string{"Props"}},
	}
	root, _, err := Reconstruct(records, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	dump := DumpTree(root)
	for _, want := range []string{"Props", "Chair", "variant 1", "variant 2", "*"} {
		if !strings.Contains(dump, want) {
			t.Errorf("DumpTree() output missing %q:\n%s", want, dump)
		}
	}
}
