// Package backup writes the whole blog to a zip archive and restores it.
//
// Archive layout:
//
//	posts/<id>.md    one post per document, see posts.MarshalPost
//	files/<name>     attachment bytes under their stored name
package backup

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/jeremyjsx/miniblog/internal/posts"
	"github.com/klauspost/compress/zip"
)

const (
	postsDir = "posts/"
	filesDir = "files/"
)

// Export writes every post and attachment held by repo to w.
func Export(ctx context.Context, repo posts.Repository, w io.Writer) error {
	all, err := repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}
	slices.SortFunc(all, func(a, b *posts.Post) int { return strings.Compare(a.ID, b.ID) })

	attachments, err := repo.ListAttachments(ctx)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}

	zw := zip.NewWriter(w)
	for _, p := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := posts.MarshalPost(p)
		if err != nil {
			return fmt.Errorf("encode post %s: %w", p.ID, err)
		}
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     postsDir + p.ID + ".md",
			Method:   zip.Deflate,
			Modified: p.LastModified,
		})
		if err != nil {
			return fmt.Errorf("add post %s: %w", p.ID, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write post %s: %w", p.ID, err)
		}
	}

	for _, a := range attachments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := exportAttachment(ctx, repo, zw, a); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func exportAttachment(ctx context.Context, repo posts.Repository, zw *zip.Writer, p string) error {
	rc, err := repo.OpenAttachment(ctx, p)
	if err != nil {
		return fmt.Errorf("open attachment %s: %w", p, err)
	}
	defer rc.Close()

	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     filesDir + path.Base(p),
		Method:   zip.Store,
		Modified: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("add attachment %s: %w", p, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("write attachment %s: %w", p, err)
	}
	return nil
}

// Stats counts what Import restored.
type Stats struct {
	Posts       int
	Attachments int
}

// Import restores an archive written by Export into repo. Posts keep their
// ids and are written straight to the backend; a running posts.Service picks
// them up on its next Reload. A post entry must be named posts/<id>.md after
// the id in its front matter. Entries outside posts/ and files/ are ignored.
func Import(ctx context.Context, r io.ReaderAt, size int64, repo posts.Repository) (Stats, error) {
	var stats Stats

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return stats, fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		switch {
		case strings.HasPrefix(f.Name, postsDir) && strings.HasSuffix(f.Name, ".md"):
			data, err := readEntry(f)
			if err != nil {
				return stats, err
			}
			p, err := posts.UnmarshalPost(data)
			if err != nil {
				return stats, fmt.Errorf("decode %s: %w", f.Name, err)
			}
			if f.Name != postsDir+p.ID+".md" {
				return stats, fmt.Errorf("%s: %w: entry name does not match post id %q", f.Name, posts.ErrInvalidPost, p.ID)
			}
			if err := repo.Store(ctx, p); err != nil {
				return stats, fmt.Errorf("store post %s: %w", p.ID, err)
			}
			stats.Posts++

		case strings.HasPrefix(f.Name, filesDir):
			data, err := readEntry(f)
			if err != nil {
				return stats, err
			}
			fileName, suffix := splitAttachmentName(path.Base(f.Name))
			if _, err := repo.StoreAttachment(ctx, data, fileName, suffix); err != nil {
				return stats, fmt.Errorf("store attachment %s: %w", f.Name, err)
			}
			stats.Attachments++
		}
	}
	return stats, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// splitAttachmentName reverses posts.AttachmentName for a stored name
// "<stem>_<suffix><ext>" so restoring yields the same name again.
func splitAttachmentName(name string) (fileName, suffix string) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	i := strings.LastIndex(stem, "_")
	if i <= 0 || i == len(stem)-1 {
		return name, ""
	}
	return stem[:i] + ext, stem[i+1:]
}
