package assemble

import (
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/zap"

	"stga/config"
	"stga/misc"
	"stga/scene"
)

// NameValues is the data available to the output name template.
type NameValues struct {
	Batch       string // batch directory base name
	DefaultPrim string
	Version     string // tool version
	Date        time.Time
}

// StageFileName expands the configured output name template. An empty
// template, an expansion error or an empty result fall back to the
// deterministic default name so assembly never fails over cosmetics.
func StageFileName(tmpl, batch, defaultPrim string, log *zap.Logger) string {
	fallback := scene.ValidPrimName(batch) + "_stage.xml"
	if len(tmpl) == 0 {
		return fallback
	}

	t, err := template.New("output-name").Funcs(sprig.FuncMap()).Parse(tmpl)
	if err != nil {
		log.Warn("Bad output name template, using default name",
			zap.String("template", tmpl), zap.Error(err))
		return fallback
	}

	var buf strings.Builder
	err = t.Execute(&buf, NameValues{
		Batch:       batch,
		DefaultPrim: defaultPrim,
		Version:     misc.GetVersion(),
		Date:        time.Now(),
	})
	if err != nil {
		log.Warn("Unable to expand output name template, using default name",
			zap.String("template", tmpl), zap.Error(err))
		return fallback
	}

	name := strings.TrimSpace(buf.String())
	if len(name) == 0 {
		log.Warn("Output name template produced empty name, using default name",
			zap.String("template", tmpl))
		return fallback
	}
	name = config.CleanFileName(name)
	if !strings.HasSuffix(name, ".xml") {
		name += ".xml"
	}
	return name
}
