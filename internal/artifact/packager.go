package artifact

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/logger"
)

// DefaultDirMode is used when creating the release directory.
const DefaultDirMode os.FileMode = 0o755

// errNotDirectory is returned when a declared source exists but is not a directory.
var errNotDirectory = errors.New("not a directory")

// Packager writes release archives for one artifact layout.
type Packager struct {
	// Layout resolves source directories and the archive location.
	Layout release.Layout
	// Archs are the architectures the build targets.
	Archs []release.Architecture
}

// source is a directory copied into the archive under prefix.
type source struct {
	dir    string
	prefix string
}

// member is one file stored in the archive.
type member struct {
	name string
	path string
	info fs.FileInfo
}

// PackageVariant zips the outputs of variant into the release directory.
// The build of variant must have completed before this is called.
func (p *Packager) PackageVariant(
	ctx context.Context,
	variant release.BuildVariant,
	rev release.RevisionInfo,
) (*release.PackagedArchive, error) {
	ctx = logger.WithKV(ctx, "variant", variant.Lower())

	members, err := p.collect(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", release.ErrPackagingFailed, variant.Name, err)
	}

	archivePath := p.Layout.ArchivePath(rev, variant)

	logger.InfoKV(ctx, "Writing archive", "path", archivePath, "members", len(members))

	if err = writeArchive(ctx, archivePath, members); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", release.ErrPackagingFailed, variant.Name, err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", release.ErrPackagingFailed, variant.Name, err)
	}

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.name
	}

	return &release.PackagedArchive{
		FileName: filepath.Base(archivePath),
		Path:     archivePath,
		Revision: rev,
		Variant:  variant.Lower(),
		Members:  names,
		Size:     info.Size(),
	}, nil
}

// Collect returns the artifact sets of variant, failing when a binary is missing.
func (p *Packager) Collect(variant release.BuildVariant) ([]release.ArtifactSet, error) {
	sets := make([]release.ArtifactSet, 0, len(p.Archs))

	for _, a := range p.Archs {
		set := release.ArtifactSet{
			Variant:      variant,
			Architecture: a,
			Binary:       p.Layout.BinaryPath(variant, a),
		}

		if _, err := os.Stat(set.Binary); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", release.ErrPackagingFailed, a, err)
		}

		if symbols := p.Layout.SymbolsPath(variant, a); fileExists(symbols) {
			set.Symbols = symbols
		}

		sets = append(sets, set)
	}

	return sets, nil
}

// collect walks every declared source and returns the sorted, de-duplicated members.
func (p *Packager) collect(ctx context.Context, variant release.BuildVariant) ([]member, error) {
	sources := make([]source, 0, len(p.Archs)+1)
	for _, a := range p.Archs {
		sources = append(sources, source{dir: p.Layout.ArchDir(variant, a), prefix: a.String()})
	}

	sources = append(sources, source{dir: p.Layout.VariantSymbolsDir(variant)})

	var (
		members []member
		seen    = make(map[string]string)
	)

	for _, src := range sources {
		info, err := os.Stat(src.dir)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.dir, err)
		}

		if !info.IsDir() {
			return nil, fmt.Errorf("source %s: %w", src.dir, errNotDirectory)
		}

		err = filepath.WalkDir(src.dir, func(filePath string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if !entry.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(src.dir, filePath)
			if err != nil {
				return err
			}

			name := path.Join(src.prefix, filepath.ToSlash(rel))
			if first, dup := seen[name]; dup {
				logger.WarnKV(ctx, "Duplicate archive member, keeping the first", "member", name, "kept", first, "dropped", filePath)

				return nil
			}

			fileInfo, err := entry.Info()
			if err != nil {
				return err
			}

			seen[name] = filePath
			members = append(members, member{name: name, path: filePath, info: fileInfo})

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", src.dir, err)
		}
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].name < members[j].name
	})

	return members, nil
}

// writeArchive writes members to a temporary file next to archivePath and renames it into place.
func writeArchive(ctx context.Context, archivePath string, members []member) (err error) {
	dir := filepath.Dir(archivePath)
	if err = os.MkdirAll(dir, DefaultDirMode); err != nil {
		return fmt.Errorf("create release directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(archivePath)+"-*")
	if err != nil {
		return fmt.Errorf("create temporary archive: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)

	for _, m := range members {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = addMember(zw, m); err != nil {
			return fmt.Errorf("add %s: %w", m.name, err)
		}
	}

	if err = zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err = os.Rename(tmp.Name(), archivePath); err != nil {
		return fmt.Errorf("move archive into place: %w", err)
	}

	return nil
}

func addMember(zw *zip.Writer, m member) error {
	header, err := zip.FileInfoHeader(m.info)
	if err != nil {
		return err
	}

	header.Name = m.name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(m.path))
	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	_, err = io.Copy(w, f)

	return err
}

// List returns the member names of an archive in stored order.
func List(archivePath string) ([]string, error) {
	r, err := zip.OpenReader(filepath.Clean(archivePath))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = r.Close()
	}()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}

	return names, nil
}

func fileExists(name string) bool {
	info, err := os.Stat(name)

	return err == nil && info.Mode().IsRegular()
}
