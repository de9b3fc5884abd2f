package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/policy"
	"github.com/zatekoja/articleforge/internal/application/render"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// Export target kinds
const (
	TargetDirectory = "directory"
	TargetCMS       = "cms"
	TargetIndex     = "search_index"
)

// ExportTarget is one place an article was delivered to
type ExportTarget struct {
	Kind     string `json:"kind"`
	Location string `json:"location,omitempty"`
	ID       string `json:"id,omitempty"`
}

// ExportReceipt is stored as <slug>/export.json
type ExportReceipt struct {
	Slug    string         `json:"slug"`
	Targets []ExportTarget `json:"targets"`
}

// ExportedFile is one article copied into an output tree
type ExportedFile struct {
	Slug  string `json:"slug"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// ExportConfig lists the configured delivery targets; all are optional
type ExportConfig struct {
	Dir           string
	Index         providers.ArticleIndex
	PublishStatus string
}

// ExportService copies finished articles out of the store and publishes them
type ExportService struct {
	deps Deps
	cfg  ExportConfig
}

// NewExportService creates a new exporter
func NewExportService(deps Deps, cfg ExportConfig) *ExportService {
	if cfg.PublishStatus == "" {
		cfg.PublishStatus = "draft"
	}
	return &ExportService{deps: deps, cfg: cfg}
}

// HasTargets reports whether the export stage would deliver anywhere
func (s *ExportService) HasTargets() bool {
	return s.cfg.Dir != "" || s.cfg.Index != nil || (s.deps.Gateway != nil && s.deps.Gateway.HasPublisher())
}

// Publish is the in-run export stage. With no target configured it records an empty receipt.
func (s *ExportService) Publish(ctx context.Context, run *entities.WorkflowRun) (*ExportReceipt, error) {
	ctx, span := observability.StartSpan(ctx, "services.export.publish")
	defer span.End()
	slug := run.Term.Slug
	receipt := &ExportReceipt{Slug: slug, Targets: []ExportTarget{}}

	if s.cfg.Dir != "" {
		files, err := s.Export(ctx, s.cfg.Dir, []string{slug})
		if err != nil {
			return nil, err
		}
		receipt.Targets = append(receipt.Targets, ExportTarget{Kind: TargetDirectory, Location: files[0].Path})
	}

	if s.deps.Gateway != nil && s.deps.Gateway.HasPublisher() {
		artifact, err := s.deps.Store.Get(ctx, entities.ArticlePath(slug))
		if err != nil {
			return nil, fmt.Errorf("publish needs the article for %s: %w", slug, err)
		}
		header, body, err := render.ParseFrontMatter(artifact.Payload)
		if err != nil {
			return nil, err
		}
		res, err := policy.Call(ctx, s.deps.Gateway, policy.Publish,
			func(ctx context.Context, a providers.Adapters) providers.Result[providers.PublishReceipt] {
				return a.Publisher.Publish(ctx, providers.PublishRequest{
					Slug:     slug,
					Title:    header.Title,
					Excerpt:  header.Description,
					Markdown: body,
					Tags:     header.Tags,
					Status:   s.cfg.PublishStatus,
				})
			})
		if err != nil {
			observability.RecordError(span, err)
			return nil, fmt.Errorf("publish %s: %w", slug, err)
		}
		receipt.Targets = append(receipt.Targets, ExportTarget{Kind: TargetCMS, Location: res.Value.URL, ID: res.Value.ID})
	}

	if s.cfg.Index != nil {
		var article entities.ArticleRecord
		if _, err := storage.GetJSON(ctx, s.deps.Store, entities.OptimizedPath(slug), &article); err != nil {
			return nil, fmt.Errorf("index needs the optimized article for %s: %w", slug, err)
		}
		if err := s.cfg.Index.Upsert(ctx, &article, entities.ArticlePath(slug)); err != nil {
			return nil, apperrors.NewUpstreamUnavailableError("search index upsert failed for "+slug, err)
		}
		receipt.Targets = append(receipt.Targets, ExportTarget{Kind: TargetIndex, ID: slug})
	}

	meta := entities.ArtifactMeta{Term: run.Term.Raw, Type: "export"}
	if err := storage.PutJSON(ctx, s.deps.Store, entities.ExportReceiptPath(slug), receipt, meta); err != nil {
		return nil, fmt.Errorf("failed to store export receipt for %s: %w", slug, err)
	}
	return receipt, nil
}

// Export copies <slug>/article.md to <dir>/<slug>.md for each slug, or for every
// rendered article when slugs is empty. Front matter is validated before copying.
func (s *ExportService) Export(ctx context.Context, dir string, slugs []string) ([]ExportedFile, error) {
	if dir == "" {
		return nil, apperrors.NewValidationError("export directory is required")
	}
	if len(slugs) == 0 {
		all, err := ListArticles(ctx, s.deps.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to list articles: %w", err)
		}
		slugs = all
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewIOError("failed to create export directory "+dir, err)
	}

	files := make([]ExportedFile, 0, len(slugs))
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return files, apperrors.NewCancelledError("export cancelled", err)
		}
		artifact, err := s.deps.Store.Get(ctx, entities.ArticlePath(slug))
		if err != nil {
			return files, fmt.Errorf("export %s: %w", slug, err)
		}
		header, _, err := render.ParseFrontMatter(artifact.Payload)
		if err == nil {
			err = header.Validate()
		}
		if err != nil {
			return files, fmt.Errorf("export %s: %w", slug, err)
		}

		target := filepath.Join(dir, slug+".md")
		if err := writeFileAtomic(target, artifact.Payload); err != nil {
			return files, apperrors.NewIOError("failed to write "+target, err)
		}
		files = append(files, ExportedFile{Slug: slug, Path: target, Bytes: len(artifact.Payload)})
	}
	return files, nil
}

func writeFileAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, target)
}
