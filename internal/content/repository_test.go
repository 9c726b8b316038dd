package content

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/vidfriends/appcore/internal/apperr"
	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/backend/backendtest"
	"github.com/vidfriends/appcore/internal/gateway"
	"github.com/vidfriends/appcore/internal/media"
	"github.com/vidfriends/appcore/internal/models"
)

func asset(name string, kind models.AssetKind) *models.UploadAsset {
	return &models.UploadAsset{
		Name:     name,
		MimeType: "application/octet-stream",
		Kind:     kind,
		Opener: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(name)), nil
		},
	}
}

func seededRepository(t *testing.T) *Repository {
	t.Helper()
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	gw := gateway.NewInMemory(time.Hour, gateway.WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))

	seed := []map[string]string{
		{FieldTitle: "Sunset over Lisbon", FieldCreator: "u1"},
		{FieldTitle: "Morning run", FieldCreator: "u2"},
		{FieldTitle: "Lisbon trams at sunset", FieldCreator: "u1"},
	}
	for i := 0; i < 9; i++ {
		fields := map[string]string{FieldTitle: "Filler clip", FieldCreator: "u3"}
		if i < len(seed) {
			fields = seed[i]
		}
		if _, err := gw.CreateDocument(context.Background(), "videos", "", fields); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return NewRepository(gw, media.NewPipeline(gw, "media"), "videos")
}

func titles(posts []models.VideoPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestRepositoryListing(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t)

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 9 {
		t.Fatalf("expected 9 posts, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("posts not ordered newest first: %v", titles(all))
		}
	}

	latest, err := repo.ListLatest(ctx, 0)
	if err != nil {
		t.Fatalf("list latest: %v", err)
	}
	if len(latest) != DefaultLatestLimit || latest[0].ID != all[0].ID {
		t.Fatalf("unexpected latest posts %v", titles(latest))
	}

	two, err := repo.ListLatest(ctx, 2)
	if err != nil || len(two) != 2 {
		t.Fatalf("expected two posts, got %v %v", titles(two), err)
	}

	mine, err := repo.ListByCreator(ctx, "u1")
	if err != nil {
		t.Fatalf("list by creator: %v", err)
	}
	if got := titles(mine); len(got) != 2 || got[0] != "Lisbon trams at sunset" || got[1] != "Sunset over Lisbon" {
		t.Fatalf("unexpected creator posts %v", got)
	}
}

func TestRepositorySearch(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t)

	cases := []struct {
		query string
		want  int
	}{
		{query: "lisbon", want: 2},
		{query: "SUNSET lisbon", want: 2},
		{query: "trams", want: 1},
		{query: "xyz-no-match", want: 0},
		{query: "", want: 0},
	}
	for _, tc := range cases {
		got, err := repo.Search(ctx, tc.query)
		if err != nil {
			t.Fatalf("search %q: %v", tc.query, err)
		}
		if got == nil || len(got) != tc.want {
			t.Fatalf("search %q: got %v want %d", tc.query, titles(got), tc.want)
		}
	}
}

func TestRepositoryNoResultContainer(t *testing.T) {
	gw := &backendtest.Gateway{
		ListDocumentsFn: func(context.Context, string, ...backend.Query) (*backend.DocumentList, error) {
			return nil, nil
		},
	}
	repo := NewRepository(gw, media.NewPipeline(gw, "media"), "videos")

	for _, query := range []string{"", "xyz-no-match"} {
		if _, err := repo.Search(context.Background(), query); !errors.Is(err, apperr.ErrQuery) {
			t.Fatalf("search %q: expected query error, got %v", query, err)
		}
	}
}

func TestRepositoryTransportFailure(t *testing.T) {
	boom := errors.New("unreachable")
	gw := &backendtest.Gateway{
		ListDocumentsFn: func(context.Context, string, ...backend.Query) (*backend.DocumentList, error) {
			return nil, boom
		},
	}
	repo := NewRepository(gw, media.NewPipeline(gw, "media"), "videos")
	ctx := context.Background()

	checks := map[string]func() error{
		"all":     func() error { _, err := repo.ListAll(ctx); return err },
		"latest":  func() error { _, err := repo.ListLatest(ctx, 3); return err },
		"creator": func() error { _, err := repo.ListByCreator(ctx, "u1"); return err },
		"search":  func() error { _, err := repo.Search(ctx, "x"); return err },
	}
	for name, check := range checks {
		if err := check(); !errors.Is(err, apperr.ErrQuery) || !errors.Is(err, boom) {
			t.Fatalf("%s: expected query error wrapping cause, got %v", name, err)
		}
	}
}

func TestRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t)

	post, err := repo.Create(ctx, Form{
		Title:     "New clip",
		Prompt:    "a cat surfing",
		Creator:   "u9",
		Thumbnail: asset("thumb.png", models.AssetKindImage),
		Video:     asset("clip.mp4", models.AssetKindVideo),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.ThumbnailURL == "" || post.VideoURL == "" || post.Creator != "u9" || post.Prompt != "a cat surfing" {
		t.Fatalf("unexpected post %+v", post)
	}
	if !strings.Contains(post.ThumbnailURL, "width=2000") {
		t.Fatalf("expected thumbnail preview url, got %q", post.ThumbnailURL)
	}

	latest, err := repo.ListLatest(ctx, 1)
	if err != nil || len(latest) != 1 || latest[0].ID != post.ID {
		t.Fatalf("expected new post first, got %v %v", titles(latest), err)
	}
}

func TestRepositoryCreateFailuresWriteNoDocument(t *testing.T) {
	boom := errors.New("upload rejected")

	cases := []struct {
		name   string
		form   Form
		upload func(context.Context, string, string, models.UploadAsset) (backend.File, error)
	}{
		{
			name: "missing title",
			form: Form{Prompt: "p", Creator: "u", Thumbnail: asset("t", models.AssetKindImage), Video: asset("v", models.AssetKindVideo)},
		},
		{
			name: "missing video",
			form: Form{Title: "t", Prompt: "p", Creator: "u", Thumbnail: asset("t", models.AssetKindImage)},
		},
		{
			name: "thumbnail upload rejects",
			form: Form{Title: "t", Prompt: "p", Creator: "u", Thumbnail: asset("t", models.AssetKindImage), Video: asset("v", models.AssetKindVideo)},
			upload: func(_ context.Context, _, id string, a models.UploadAsset) (backend.File, error) {
				if a.Kind == models.AssetKindImage {
					return backend.File{}, boom
				}
				return backend.File{ID: id}, nil
			},
		},
		{
			name: "video upload rejects",
			form: Form{Title: "t", Prompt: "p", Creator: "u", Thumbnail: asset("t", models.AssetKindImage), Video: asset("v", models.AssetKindVideo)},
			upload: func(_ context.Context, _, id string, a models.UploadAsset) (backend.File, error) {
				if a.Kind == models.AssetKindVideo {
					return backend.File{}, boom
				}
				return backend.File{ID: id}, nil
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &backendtest.Gateway{
				CreateFileFn:  tc.upload,
				GetFileViewFn: func(context.Context, string, string) (string, error) { return "https://v", nil },
				GetFilePreviewFn: func(context.Context, string, string, backend.PreviewOptions) (string, error) {
					return "https://p", nil
				},
				DeleteFileFn: func(context.Context, string, string) error { return nil },
				CreateDocumentFn: func(_ context.Context, _, id string, _ map[string]string) (backend.Document, error) {
					return backend.Document{ID: id}, nil
				},
			}
			repo := NewRepository(gw, media.NewPipeline(gw, "media"), "videos")

			post, err := repo.Create(context.Background(), tc.form)
			if post != nil || !errors.Is(err, apperr.ErrCreation) {
				t.Fatalf("expected creation error, got %+v %v", post, err)
			}
			if gw.Count("CreateDocument") != 0 {
				t.Fatal("no document may be written when creation fails")
			}
		})
	}
}

type emptyUploader struct{}

func (emptyUploader) UploadPair(context.Context, *models.UploadAsset, *models.UploadAsset) (string, string, error) {
	return "https://thumb", "", nil
}

func TestRepositoryCreateRequiresBothURLs(t *testing.T) {
	gw := &backendtest.Gateway{}
	repo := NewRepository(gw, emptyUploader{}, "videos")

	_, err := repo.Create(context.Background(), Form{
		Title: "t", Prompt: "p", Creator: "u",
		Thumbnail: asset("t", models.AssetKindImage),
		Video:     asset("v", models.AssetKindVideo),
	})
	if !errors.Is(err, apperr.ErrCreation) {
		t.Fatalf("expected creation error, got %v", err)
	}
	if gw.Count("CreateDocument") != 0 {
		t.Fatal("no document may be written without both urls")
	}
}
