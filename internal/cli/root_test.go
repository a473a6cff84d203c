package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/framestore"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand("test")
	require.NotNil(t, cmd)
	assert.Equal(t, "text2video", cmd.Use)
	assert.Equal(t, "test", cmd.Version)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand("test")
	for _, name := range []string{"render", "decompose", "encode"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand("test")

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
}

func TestDecompose(t *testing.T) {
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"decompose", "값\nA"})
	require.NoError(t, cmd.Execute())

	got := out.String()
	assert.Contains(t, got, "U+1100")
	assert.Contains(t, got, "U+1161")
	assert.Contains(t, got, "U+11B9")
	assert.Contains(t, got, "U+000A")
	assert.Contains(t, got, "U+0041")
	assert.Contains(t, got, "Единиц: 5 | Строк: 2")
}

func TestDecomposeNeedsInput(t *testing.T) {
	cmd := NewRootCommand("test")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"decompose"})
	assert.Error(t, cmd.Execute())
}

func TestApplyRenderFlags(t *testing.T) {
	cmd := NewRenderCommand(&RootOptions{})
	require.NoError(t, cmd.ParseFlags([]string{"--fps", "30", "--hold", "2s", "--script", "a.txt"}))

	cfg := config.Default()
	cfg.Text = "from config"
	cfg.Width = 1280
	opts := &RenderOptions{FPS: 30, Hold: 2 * time.Second, Script: "a.txt", Width: 640}
	applyRenderFlags(cmd, cfg, opts)

	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, "a.txt", cfg.ScriptPath)
	assert.Empty(t, cfg.Text)
	assert.Equal(t, "2s", cfg.Hold.String())
}

func TestApplyRevealFlags(t *testing.T) {
	cmd := NewRenderCommand(&RootOptions{})
	require.NoError(t, cmd.ParseFlags([]string{"--trailing-delay", "750ms", "--align", "center"}))

	cfg := config.Default()
	opts := &RenderOptions{Trailing: 750 * time.Millisecond, Align: "center"}
	applyRenderFlags(cmd, cfg, opts)

	assert.Equal(t, 750*time.Millisecond, cfg.RevealOptions().TrailingDelay)
	assert.Equal(t, "center", cfg.TextAlign)
	assert.Equal(t, 500*time.Millisecond, cfg.LineDelay)
}

func TestPickSession(t *testing.T) {
	dir := t.TempDir()
	_, err := pickSession(dir)
	assert.ErrorContains(t, err, "no captured frames")

	for _, session := range []string{"one", "two"} {
		s, err := framestore.New(dir, framestore.Options{SessionID: session})
		require.NoError(t, err)
		_, err = s.Save([]byte("png"))
		require.NoError(t, err)

		got, err := pickSession(dir)
		if session == "one" {
			require.NoError(t, err)
			assert.Equal(t, "one", got)
		} else {
			assert.ErrorContains(t, err, "one, two")
		}
	}
}
