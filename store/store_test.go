package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "admark.db"), filepath.Join(dir, "data"), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &pipeline.Project{
		ID:           "proj-1",
		Name:         "demo",
		ProductBrief: "a smart kettle",
		Script:       &types.Script{Hook: "h", Problem: "p", Solution: "s", CTA: "c"},
		Shots: []*pipeline.Shot{{
			ID:      "shot-1",
			Ordinal: 0,
			Keyframe: pipeline.AssetState{
				Path: "/tmp/k.png", Version: 2, Status: types.AssetReady,
			},
			History: []pipeline.VersionEntry{
				{Kind: types.MediaImage, Version: 1, AssetPath: "/tmp/k1.png"},
				{Kind: types.MediaImage, Version: 2, AssetPath: "/tmp/k.png"},
			},
		}},
	}

	saved, err := s.Save(ctx, p)
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero(), "保存刷新修改时间")

	loaded, err := s.Load(ctx, "proj-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "a smart kettle", loaded.ProductBrief)
	require.Len(t, loaded.Shots, 1)
	assert.Equal(t, 2, loaded.Shots[0].Keyframe.Version)
	assert.Len(t, loaded.Shots[0].History, 2, "版本历史完整往返")
}

func TestStore_LoadMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)

	p, err := s.Load(context.Background(), "no-such-project")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStore_SaveRequiresID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save(context.Background(), &pipeline.Project{})
	require.Error(t, err)
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Save(ctx, &pipeline.Project{ID: id, Name: "n-" + id})
		require.NoError(t, err)
	}

	projects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 3)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, &pipeline.Project{ID: "proj-1"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "proj-1"))

	p, err := s.Load(ctx, "proj-1")
	require.NoError(t, err)
	assert.Nil(t, p)

	assert.Equal(t, types.ErrProjectNotFound, types.GetErrorCode(s.Delete(ctx, "proj-1")), "重复删除应返回项目不存在")
}

func TestStore_EnsureDirectories(t *testing.T) {
	s := newTestStore(t)

	dirs, err := s.EnsureDirectories("proj-1")
	require.NoError(t, err)

	for _, d := range []string{dirs.Scripts, dirs.Keyframes, dirs.Clips, dirs.Frames, dirs.Exports} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// 幂等
	again, err := s.EnsureDirectories("proj-1")
	require.NoError(t, err)
	assert.Equal(t, dirs, again)
}
