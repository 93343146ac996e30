package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// fakeRunner 记录调用的流水线编排器
type fakeRunner struct {
	calls   []string
	kind    types.MediaKind
	version int
	project *pipeline.Project
	err     error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{project: &pipeline.Project{ID: "proj-1", Name: "demo"}}
}

func (f *fakeRunner) record(op string) (*pipeline.Project, error) {
	f.calls = append(f.calls, op)
	if f.err != nil {
		return nil, f.err
	}
	return f.project, nil
}

func (f *fakeRunner) GenerateScript(_ context.Context, _ string) (*pipeline.Project, error) {
	return f.record("script")
}

func (f *fakeRunner) BuildStoryboard(_ context.Context, _ string) (*pipeline.Project, error) {
	return f.record("storyboard")
}

func (f *fakeRunner) GenerateKeyframe(_ context.Context, _, _ string) (*pipeline.Project, error) {
	return f.record("keyframe")
}

func (f *fakeRunner) GenerateAllKeyframes(_ context.Context, _ string) (*pipeline.Project, error) {
	return f.record("keyframes")
}

func (f *fakeRunner) GenerateClip(_ context.Context, _, _ string) (*pipeline.Project, error) {
	return f.record("clip")
}

func (f *fakeRunner) GenerateAllClips(_ context.Context, _ string) (*pipeline.Project, error) {
	return f.record("clips")
}

func (f *fakeRunner) Rollback(_ context.Context, _, _ string, kind types.MediaKind, version int) (*pipeline.Project, error) {
	f.kind = kind
	f.version = version
	return f.record("rollback")
}

func (f *fakeRunner) Export(_ context.Context, _ string) (*pipeline.Project, error) {
	return f.record("export")
}

func projectRequest(method, path string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	r.SetPathValue("id", "proj-1")
	return r
}

// =============================================================================
// 🧪 流水线 Handler 测试
// =============================================================================

func TestPipelineHandler_Operations(t *testing.T) {
	tests := []struct {
		name   string
		invoke func(h *PipelineHandler, w http.ResponseWriter, r *http.Request)
		wantOp string
	}{
		{"script", (*PipelineHandler).HandleGenerateScript, "script"},
		{"storyboard", (*PipelineHandler).HandleBuildStoryboard, "storyboard"},
		{"keyframes", (*PipelineHandler).HandleGenerateKeyframes, "keyframes"},
		{"clips", (*PipelineHandler).HandleGenerateClips, "clips"},
		{"export", (*PipelineHandler).HandleExport, "export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			h := NewPipelineHandler(runner, zap.NewNop())

			w := httptest.NewRecorder()
			tt.invoke(h, w, projectRequest(http.MethodPost, "/api/v1/projects/proj-1/"+tt.name))

			require.Equal(t, http.StatusOK, w.Code)
			resp := decodeResponse(t, w)
			assert.True(t, resp.Success)
			assert.Equal(t, []string{tt.wantOp}, runner.calls)

			data := resp.Data.(map[string]interface{})
			assert.Equal(t, "proj-1", data["id"])
		})
	}
}

func TestPipelineHandler_ShotOperations(t *testing.T) {
	runner := newFakeRunner()
	h := NewPipelineHandler(runner, zap.NewNop())

	r := projectRequest(http.MethodPost, "/api/v1/projects/proj-1/shots/shot-1/keyframe")
	r.SetPathValue("shotID", "shot-1")
	w := httptest.NewRecorder()
	h.HandleGenerateKeyframe(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	r = projectRequest(http.MethodPost, "/api/v1/projects/proj-1/shots/shot-1/clip")
	r.SetPathValue("shotID", "shot-1")
	w = httptest.NewRecorder()
	h.HandleGenerateClip(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"keyframe", "clip"}, runner.calls)
}

func TestPipelineHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no clips", types.NewError(types.ErrNoClipsAvailable, "no clips available for export"), http.StatusConflict},
		{"missing keyframe", types.NewError(types.ErrResourceMissing, "keyframe required"), http.StatusConflict},
		{"project gone", types.NewError(types.ErrProjectNotFound, "project not found"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.err = tt.err
			h := NewPipelineHandler(runner, zap.NewNop())

			w := httptest.NewRecorder()
			h.HandleExport(w, projectRequest(http.MethodPost, "/api/v1/projects/proj-1/export"))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, decodeResponse(t, w).Success)
		})
	}
}

func TestPipelineHandler_Rollback(t *testing.T) {
	runner := newFakeRunner()
	h := NewPipelineHandler(runner, zap.NewNop())

	r := postJSON("/api/v1/projects/proj-1/shots/shot-1/rollback", `{"kind":"keyframe","version":2}`)
	r.SetPathValue("id", "proj-1")
	r.SetPathValue("shotID", "shot-1")
	w := httptest.NewRecorder()
	h.HandleRollback(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.MediaImage, runner.kind, "keyframe 应映射为 image 资产")
	assert.Equal(t, 2, runner.version)

	r = postJSON("/api/v1/projects/proj-1/shots/shot-1/rollback", `{"kind":"clip","version":1}`)
	r.SetPathValue("id", "proj-1")
	r.SetPathValue("shotID", "shot-1")
	w = httptest.NewRecorder()
	h.HandleRollback(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.MediaVideo, runner.kind, "clip 应映射为 video 资产")
}

func TestPipelineHandler_Rollback_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad kind", `{"kind":"script","version":1}`},
		{"zero version", `{"kind":"clip","version":0}`},
		{"negative version", `{"kind":"clip","version":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			h := NewPipelineHandler(runner, zap.NewNop())

			r := postJSON("/api/v1/projects/proj-1/shots/shot-1/rollback", tt.body)
			r.SetPathValue("id", "proj-1")
			r.SetPathValue("shotID", "shot-1")
			w := httptest.NewRecorder()
			h.HandleRollback(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, runner.calls, "校验失败不应触达编排器")
		})
	}
}
