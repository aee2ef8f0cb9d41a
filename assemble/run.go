package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stga/fragment"
	"stga/misc"
	"stga/scene"
	"stga/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("assemble")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if fi, err := os.Stat(src); err != nil {
		return fmt.Errorf("unable to access input source: %w", err)
	} else if !fi.Mode().IsDir() {
		return fmt.Errorf("input source is not a directory (%s)", src)
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = src
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	if err = os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	env.Overwrite, env.NoRewrite, env.NoCache = cmd.Bool("overwrite"), cmd.Bool("no-rewrite"), cmd.Bool("no-cache")
	env.DefaultPrim = env.Cfg.Stage.DefaultPrim
	if prim := cmd.String("default-prim"); len(prim) > 0 {
		env.DefaultPrim = prim
	}

	log.Info("Assembly starting", zap.String("source", src), zap.String("destination", dst), zap.String("default_prim", env.DefaultPrim))
	defer func(start time.Time) {
		log.Info("Assembly completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core assembly logic independently of CLI framework:
// sidecar, fragment normalization, hierarchy reconstruction, stage emission.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	sidecar := filepath.Join(src, scene.SidecarName)
	records, warns, err := scene.ReadSidecar(sidecar, log)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("hierarchy sidecar has no fragment records (%s)", sidecar)
	}
	if err := env.Rpt.StoreCopy("batch/"+scene.SidecarName, sidecar); err != nil {
		log.Warn("Unable to store sidecar in debug report", zap.Error(err))
	}
	log.Debug("Sidecar loaded", zap.Int("records", len(records)))

	// a record whose fragment file vanished still shapes the hierarchy, it
	// just composes nothing
	for i := range records {
		if len(records[i].FilePath) == 0 {
			continue
		}
		path := filepath.Join(src, filepath.FromSlash(records[i].FilePath))
		if _, err := os.Stat(path); err != nil {
			log.Warn("Fragment file is missing, keeping object as empty group",
				zap.String("object", records[i].ObjectName), zap.String("file", records[i].FilePath), zap.Error(err))
			warns = append(warns, scene.Warning{
				Kind:    scene.WarnMissingFragment,
				Object:  records[i].ObjectName,
				Message: fmt.Sprintf("fragment file %q is missing", records[i].FilePath),
			})
			records[i].FilePath = ""
		}
	}

	if !env.NoRewrite && env.Cfg.Fragments.StripWrapper {
		rewriteWarns, err := rewriteFragments(ctx, src, records, log)
		warns = append(warns, rewriteWarns...)
		if err != nil {
			return err
		}
		// archived at report close, after rewriting settled
		env.Rpt.Store("batch/fragments", src)
	} else {
		log.Debug("Fragment normalization skipped")
	}

	root, treeWarns, err := Reconstruct(records, log)
	if err != nil {
		return err
	}
	warns = append(warns, treeWarns...)
	env.Rpt.StoreData("hierarchy.txt", []byte(DumpTree(root)))

	fragDir := ""
	if src != dst {
		if rel, err := filepath.Rel(dst, src); err == nil {
			fragDir = rel
		} else {
			fragDir = src
		}
	}

	cfg := env.Cfg.Stage
	doc := EmitStage(root, StageOptions{
		DefaultPrim:     env.DefaultPrim,
		VariantSetName:  cfg.VariantSet,
		UpAxis:          cfg.UpAxis,
		MetersPerUnit:   cfg.MetersPerUnit,
		StartTimeCode:   cfg.StartTimeCode,
		EndTimeCode:     cfg.EndTimeCode,
		FramesPerSecond: cfg.FramesPerSecond,
		Generator:       misc.GetAppName() + " " + misc.GetVersion(),
		Session:         uuid.Must(uuid.NewV7()).String(),
		FragmentDir:     fragDir,
	})

	name := StageFileName(cfg.OutputNameTemplate, filepath.Base(src), env.DefaultPrim, log)
	final := filepath.Join(dst, name)
	if _, err := os.Stat(final); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", final)
		}
		log.Warn("Overwriting existing file", zap.String("file", final))
	} else if !os.IsNotExist(err) {
		return err
	}

	final, err = CommitStage(doc, dst, name)
	if err != nil {
		return err
	}
	env.Rpt.Store("stage/"+name, final)

	for _, w := range warns {
		log.Warn("Assembly warning", zap.String("kind", w.Kind), zap.String("object", w.Object), zap.String("details", w.Message))
	}
	log.Info("Stage written", zap.String("file", final), zap.Int("fragments", len(records)), zap.Int("warnings", len(warns)))
	return nil
}

// rewriteFragments normalizes every fragment file of the batch in place.
// Fragments are independent so rewriting is parallel; the cache and the
// warning list are shared and guarded by one mutex.
func rewriteFragments(ctx context.Context, src string, records []scene.FragmentRecord, log *zap.Logger) ([]scene.Warning, error) {
	env := state.EnvFromContext(ctx)

	opts := fragment.Options{
		WrapperName:    env.Cfg.Fragments.WrapperName,
		MaterialScopes: env.Cfg.Fragments.MaterialScopes,
		NestMaterials:  env.Cfg.Fragments.NestMaterials,
	}

	var cache *fragment.Cache
	if env.Cfg.Fragments.Cache && !env.NoCache {
		var err error
		if cache, err = fragment.OpenCache(filepath.Join(src, fragment.CacheName)); err != nil {
			log.Warn("Rewrite cache is not available, rewriting everything", zap.Error(err))
		}
	}
	defer cache.Close()

	workers := env.Cfg.Fragments.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu                 sync.Mutex
		warns              []scene.Warning
		rewritten, skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		if len(records[i].FilePath) == 0 {
			continue
		}
		path := filepath.Join(src, filepath.FromSlash(records[i].FilePath))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			hash, err := fragment.HashFile(path)
			if err != nil {
				return fmt.Errorf("unable to hash fragment %q: %w", path, err)
			}

			mu.Lock()
			known := cache.Unchanged(path, hash)
			mu.Unlock()
			if known {
				mu.Lock()
				skipped++
				mu.Unlock()
				log.Debug("Fragment unchanged, skipping rewrite", zap.String("file", path))
				return nil
			}

			changed, w, err := fragment.RewriteFile(path, opts, log)
			if err != nil {
				return err
			}
			if changed {
				if hash, err = fragment.HashFile(path); err != nil {
					return fmt.Errorf("unable to hash rewritten fragment %q: %w", path, err)
				}
			}

			mu.Lock()
			warns = append(warns, w...)
			if changed {
				rewritten++
			}
			if er := cache.Remember(path, hash); er != nil {
				log.Warn("Unable to update rewrite cache", zap.String("file", path), zap.Error(er))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return warns, err
	}

	log.Info("Fragments normalized", zap.Int("rewritten", rewritten), zap.Int("skipped", skipped))
	return warns, nil
}
