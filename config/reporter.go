package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"stga/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates an empty report. When the configured destination cannot be
// created the report falls back to a temporary file rather than failing the
// batch.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{items: make(map[string]item)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

// item is a single report member: either a path collected at close time, a
// snapshot taken at store time, or in-memory data.
type item struct {
	src      string // path as the caller stored it
	resolved string // absolute path, or the snapshot location
	stamp    time.Time
	data     []byte
}

// Report collects everything needed to look into a finished batch: the
// sidecar, rewritten fragments, the emitted stage, logs. Members accumulate
// under archive names and land in a single zip on Close. Not safe for
// concurrent use; the batch stores members from one goroutine.
type Report struct {
	items map[string]item
	file  *os.File
}

// Close writes the archive. A nil receiver means no report was requested and
// is a no-op, so call sites never have to check.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.writeArchive()
}

// Name returns the location of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store registers a file or directory to be archived under name when the
// report closes. The path is read at close time, after the batch settled.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}

	if old, exists := r.items[name]; exists && old.src != path {
		// two call sites fighting over one archive name is a programming error
		panic(fmt.Sprintf("report member %q stored twice: was %s, now %s", name, old.src, path))
	}

	it := item{src: path, resolved: path}
	if p, err := filepath.Abs(path); err == nil {
		it.resolved = p
	}
	r.items[name] = it
}

// StoreData registers in-memory content to be archived under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}

	if _, exists := r.items[name]; exists {
		panic(fmt.Sprintf("report member %q stored twice", name))
	}

	r.items[name] = item{data: data, stamp: time.Now()}
}

// StoreCopy snapshots a file or directory right now, so later mutation of the
// original does not leak into the report. Storing the same name again
// versions it with a timestamp instead of colliding.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	it := item{src: path, stamp: time.Now()}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	it.resolved = abs

	if _, exists := r.items[name]; exists {
		name = fmt.Sprintf("%s-%d", name, it.stamp.UnixNano())
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-report-")
	if err != nil {
		return err
	}

	info, err := os.Stat(it.resolved)
	if err != nil {
		return err
	}
	switch {
	case info.Mode().IsRegular():
		where, err := snapshotFile(dir, it.resolved, info.ModTime())
		if err != nil {
			return err
		}
		it.resolved = where
	case info.Mode().IsDir():
		if err := snapshotDir(dir, it.resolved); err != nil {
			return err
		}
		it.resolved = dir
	}

	r.items[name] = it
	return nil
}

func snapshotFile(dir, src string, modTime time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	if err = out.Sync(); err != nil {
		return "", err
	}
	out.Close()

	// preserve the original timestamp, it matters when reading the report
	if err := os.Chtimes(dst, modTime, modTime); err != nil {
		return "", err
	}
	return dst, nil
}

func snapshotDir(dir, src string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			// links, sockets and the like have no place in a report
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if _, err := snapshotFile(filepath.Dir(filepath.Join(dir, rel)), path, info.ModTime()); err != nil {
			return err
		}
		return nil
	})
}

// writeArchive renders the zip: a MANIFEST first, then every member in
// manifest order. Members whose path vanished since Store are skipped, the
// manifest still names them.
func (r *Report) writeArchive() error {
	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names, manifest := buildManifest(r.items)
	if err := archiveFile(arc, "MANIFEST", time.Now(), manifest); err != nil {
		return err
	}

	for _, name := range names {
		it := r.items[name]
		if len(it.data) > 0 {
			if err := archiveFile(arc, name, it.stamp, bytes.NewReader(it.data)); err != nil {
				return err
			}
			continue
		}

		info, err := os.Stat(it.resolved)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			in, err := os.Open(it.resolved)
			if err != nil {
				return err
			}
			if err := archiveFile(arc, name, info.ModTime(), in); err != nil {
				in.Close()
				return err
			}
			in.Close()
		case info.Mode().IsDir():
			if err := archiveDir(arc, name, it.resolved); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildManifest(items map[string]item) ([]string, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	if len(items) == 0 {
		return nil, buf
	}

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	for _, name := range names {
		it := items[name]
		if it.stamp.IsZero() {
			it.stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", it.stamp.UTC().Format(time.RFC3339), name, it.src, it.resolved)
	}
	return names, buf
}

func archiveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func archiveDir(dst *zip.Writer, name, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		return archiveFile(dst, filepath.ToSlash(filepath.Join(name, rel)), info.ModTime(), in)
	})
}
