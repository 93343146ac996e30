package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/config"
	"github.com/LavonTMCQ/autonomous-marketing/continuity"
	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

// fakeStore 内存项目存储
type fakeStore struct {
	projects map[string]*pipeline.Project
	deleted  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: make(map[string]*pipeline.Project)}
}

func (s *fakeStore) Load(_ context.Context, id string) (*pipeline.Project, error) {
	return s.projects[id], nil
}

func (s *fakeStore) Save(_ context.Context, p *pipeline.Project) (*pipeline.Project, error) {
	s.projects[p.ID] = p
	return p, nil
}

func (s *fakeStore) List(_ context.Context) ([]*pipeline.Project, error) {
	out := make([]*pipeline.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.projects[id]; !ok {
		return types.NewError(types.ErrProjectNotFound, "project not found: "+id)
	}
	delete(s.projects, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func testPipelineDefaults() config.PipelineConfig {
	return config.PipelineConfig{
		ContinuityMode: "last-frame",
		TotalDuration:  32,
		AspectRatio:    "16:9",
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func postJSON(path, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// =============================================================================
// 🧪 项目 Handler 测试
// =============================================================================

func TestProjectHandler_Create(t *testing.T) {
	store := newFakeStore()
	h := NewProjectHandler(store, testPipelineDefaults(), zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleCreate(w, postJSON("/api/v1/projects",
		`{"name":"spring-launch","product_brief":"smart water bottle"}`))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["id"], "应生成项目ID")
	assert.Equal(t, "spring-launch", data["name"])

	// 未指定的字段应回退到服务端默认值
	saved := store.projects[data["id"].(string)]
	require.NotNil(t, saved)
	assert.Equal(t, "16:9", saved.AspectRatio)
	assert.Equal(t, 32.0, saved.TotalDuration)
	assert.Equal(t, continuity.ModeLastFrame, saved.ContinuityMode)
}

func TestProjectHandler_Create_ExplicitOverrides(t *testing.T) {
	store := newFakeStore()
	h := NewProjectHandler(store, testPipelineDefaults(), zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleCreate(w, postJSON("/api/v1/projects",
		`{"name":"p","product_brief":"b","aspect_ratio":"9:16","total_duration":20,"continuity_mode":"bridging"}`))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	saved := store.projects[data["id"].(string)]
	assert.Equal(t, "9:16", saved.AspectRatio)
	assert.Equal(t, 20.0, saved.TotalDuration)
	assert.Equal(t, continuity.ModeBridging, saved.ContinuityMode)
}

func TestProjectHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"product_brief":"b"}`},
		{"missing brief", `{"name":"p"}`},
		{"bad continuity mode", `{"name":"p","product_brief":"b","continuity_mode":"teleport"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProjectHandler(newFakeStore(), testPipelineDefaults(), zap.NewNop())
			w := httptest.NewRecorder()
			h.HandleCreate(w, postJSON("/api/v1/projects", tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, string(types.ErrInvalidRequest), resp.Error.Code)
		})
	}
}

func TestProjectHandler_Get(t *testing.T) {
	store := newFakeStore()
	store.projects["proj-1"] = &pipeline.Project{ID: "proj-1", Name: "demo"}
	h := NewProjectHandler(store, testPipelineDefaults(), zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects/proj-1", nil)
	r.SetPathValue("id", "proj-1")
	h.HandleGet(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "demo", data["name"])
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	h := NewProjectHandler(newFakeStore(), testPipelineDefaults(), zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects/missing", nil)
	r.SetPathValue("id", "missing")
	h.HandleGet(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(types.ErrProjectNotFound), decodeResponse(t, w).Error.Code)
}

func TestProjectHandler_List(t *testing.T) {
	store := newFakeStore()
	store.projects["a"] = &pipeline.Project{ID: "a", Name: "one", Shots: []*pipeline.Shot{{}, {}}}
	store.projects["b"] = &pipeline.Project{ID: "b", Name: "two"}
	h := NewProjectHandler(store, testPipelineDefaults(), zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))

	require.Equal(t, http.StatusOK, w.Code)
	list := decodeResponse(t, w).Data.([]interface{})
	assert.Len(t, list, 2)
}

func TestProjectHandler_Delete(t *testing.T) {
	store := newFakeStore()
	store.projects["proj-1"] = &pipeline.Project{ID: "proj-1"}
	h := NewProjectHandler(store, testPipelineDefaults(), zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/proj-1", nil)
	r.SetPathValue("id", "proj-1")
	h.HandleDelete(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"proj-1"}, store.deleted)

	// 再删一次应返回 404
	w = httptest.NewRecorder()
	h.HandleDelete(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
