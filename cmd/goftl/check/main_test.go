package check_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/goftl/cmd/goftl/check"
)

func TestRun(t *testing.T) {
	files := map[string]string{
		"/site/clean.ftl":   `<#list xs as x>${x}</#list>`,
		"/site/warn.ftl":    `<#if a = b>x</#if>`,
		"/site/broken.ftlh": "ok\n<#if x>",
	}

	tests := []struct {
		name     string
		args     []string
		strict   bool
		wantErr  bool
		contains []string
	}{
		{
			name:     "clean",
			args:     []string{"/site/clean.ftl"},
			contains: []string{"1 files, 0 errors, 0 warnings"},
		},
		{
			name:     "warnings pass",
			args:     []string{"/site/warn.ftl"},
			contains: []string{"Warning: Deprecated '=' comparison", "on /site/warn.ftl line 1", "0 errors, 1 warnings"},
		},
		{
			name:     "warnings fail when strict",
			args:     []string{"/site/warn.ftl"},
			strict:   true,
			wantErr:  true,
			contains: []string{"0 errors, 1 warnings"},
		},
		{
			name:     "errors fail",
			args:     []string{"/site/**/*.ftl*"},
			wantErr:  true,
			contains: []string{"unexpected end of input, expected </#if>", "on /site/broken.ftlh line 2", "3 files, 1 errors, 1 warnings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for name, src := range files {
				require.NoError(t, afero.WriteFile(fs, name, []byte(src), 0o644))
			}

			var out bytes.Buffer
			h := &check.Handler{Fs: fs, Width: 80, Strict: tt.strict}
			err := h.Run(context.Background(), &out, tt.args)
			if tt.wantErr {
				require.ErrorIs(t, err, check.ErrFailed)
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}
