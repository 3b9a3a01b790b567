package finder_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/goftl/pkg/finder"
)

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, name := range []string{
		"/site/index.ftl",
		"/site/mail.ftlh",
		"/site/readme.md",
		"/site/partials/header.ftl",
		"/site/partials/deep/footer.FTL",
		"/other/page.ftl",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("${x}"), 0o644))
	}
	return fs
}

func TestFind(t *testing.T) {
	tests := []struct {
		name       string
		extensions []string
		args       []string
		want       []string
		wantErr    bool
	}{
		{
			name: "directory",
			args: []string{"/site"},
			want: []string{
				"/site/index.ftl",
				"/site/mail.ftlh",
				"/site/partials/deep/footer.FTL",
				"/site/partials/header.ftl",
			},
		},
		{
			name:       "custom extensions",
			extensions: []string{".md"},
			args:       []string{"/site"},
			want:       []string{"/site/readme.md"},
		},
		{
			name: "plain file of any extension",
			args: []string{"/site/readme.md"},
			want: []string{"/site/readme.md"},
		},
		{
			name: "doublestar",
			args: []string{"/site/**/*.ftl"},
			want: []string{"/site/index.ftl", "/site/partials/header.ftl"},
		},
		{
			name: "overlapping arguments",
			args: []string{"/site/index.ftl", "/site/*.ftl", "/other"},
			want: []string{"/other/page.ftl", "/site/index.ftl"},
		},
		{
			name:    "missing file still returns the rest",
			args:    []string{"/nope.ftl", "/other"},
			want:    []string{"/other/page.ftl"},
			wantErr: true,
		},
		{
			name:    "pattern without matches",
			args:    []string{"/site/**/*.ftlx"},
			want:    []string{},
			wantErr: true,
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := finder.New(newFs(t), tt.extensions...).Find(ctx, tt.args)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindReportsEveryFailure(t *testing.T) {
	_, err := finder.New(newFs(t)).Find(context.Background(), []string{"/a/*.ftl", "/b/*.ftl", "/site"})
	require.ErrorIs(t, err, finder.ErrNoMatch)
	assert.ErrorContains(t, err, "/a/*.ftl")
	assert.ErrorContains(t, err, "/b/*.ftl")
}
