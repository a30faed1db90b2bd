package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborpost/harborpost/internal/auth"
	"github.com/harborpost/harborpost/internal/services"
	"github.com/harborpost/harborpost/internal/store/memory"
)

type actorHeaders struct {
	id       string
	role     string
	verified bool
}

var (
	asAlice = actorHeaders{id: "alice", role: "USER", verified: true}
	asBob   = actorHeaders{id: "bob", role: "USER", verified: true}
	asAdmin = actorHeaders{id: "mod", role: "ADMIN", verified: true}
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := memory.New()
	posts := services.NewPostService(st, nil)
	replies := services.NewReplyService(st)
	queries := services.NewQueryService(st, nil)
	srv := httptest.NewServer(NewRouter(posts, replies, queries, auth.NewHeaderAuthorizer()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, as *actorHeaders, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("X-Actor-Id", as.id)
		req.Header.Set("X-Actor-Role", as.role)
		req.Header.Set("X-Actor-Verified", fmt.Sprintf("%t", as.verified))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func createPublished(t *testing.T, srv *httptest.Server, as actorHeaders) string {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/posts", &as, map[string]interface{}{
		"title": "t", "content": "c", "publish": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func TestAPI_PostLifecycleRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/api/posts", &asAlice, map[string]interface{}{
		"title": "hello", "content": "world",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "UNPUBLISHED", body["stage"])
	id := body["id"].(string)

	resp, body = do(t, srv, http.MethodPost, "/api/posts/"+id+"/publish", &asAlice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PUBLISHED", body["stage"])

	resp, body = do(t, srv, http.MethodPost, "/api/posts/"+id+"/hide", &asAlice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIDDEN", body["stage"])

	resp, body = do(t, srv, http.MethodPost, "/api/posts/"+id+"/unhide", &asAlice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PUBLISHED", body["stage"])

	resp, body = do(t, srv, http.MethodGet, "/api/posts", &asBob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
}

func TestAPI_StatusMappings(t *testing.T) {
	srv := newTestServer(t)
	id := createPublished(t, srv, asAlice)

	// 400: malformed id.
	resp, _ := do(t, srv, http.MethodGet, "/api/posts/not-a-uuid", &asBob, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 401: no identity headers at all.
	resp, _ = do(t, srv, http.MethodGet, "/api/posts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 403: non-owner tries an owner operation.
	resp, _ = do(t, srv, http.MethodDelete, "/api/posts/"+id, &asBob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// 404: missing post.
	resp, _ = do(t, srv, http.MethodGet, "/api/posts/00000000-0000-0000-0000-000000000001", &asBob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// 409: invalid transition.
	resp, _ = do(t, srv, http.MethodPost, "/api/posts/"+id+"/publish", &asAlice, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_GateOrder(t *testing.T) {
	srv := newTestServer(t)

	// Banned beats unverified.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/posts", bytes.NewReader([]byte(`{"title":"t","content":"c"}`)))
	require.NoError(t, err)
	req.Header.Set("X-Actor-Id", "evil")
	req.Header.Set("X-Actor-Banned", "true")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unverified users may read but not write.
	unverified := actorHeaders{id: "carol", role: "USER", verified: false}
	r2, _ := do(t, srv, http.MethodGet, "/api/posts", &unverified, nil)
	assert.Equal(t, http.StatusOK, r2.StatusCode)

	r3, _ := do(t, srv, http.MethodPost, "/api/posts", &unverified, map[string]interface{}{
		"title": "t", "content": "c",
	})
	assert.Equal(t, http.StatusForbidden, r3.StatusCode)
}

func TestAPI_DraftVisibilityMasked(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/api/posts", &asAlice, map[string]interface{}{
		"title": "secret", "content": "draft",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)

	// A stranger gets 404, never 403.
	resp, _ = do(t, srv, http.MethodGet, "/api/posts/"+id, &asBob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/posts/"+id, &asAlice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The literal route is not shadowed by the id route.
	resp, body = do(t, srv, http.MethodGet, "/api/posts/mine/drafts", &asAlice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
}

func TestAPI_ReplyFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createPublished(t, srv, asAlice)

	resp, body := do(t, srv, http.MethodPost, "/api/posts/"+id+"/replies", &asBob, map[string]interface{}{
		"comment": "first",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	replyID := body["id"].(string)

	resp, body = do(t, srv, http.MethodPost, "/api/posts/"+id+"/replies", &asBob, map[string]interface{}{
		"comment": "nested", "parentReplyId": replyID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, replyID, body["parentReplyId"])

	resp, body = do(t, srv, http.MethodGet, "/api/posts/"+id+"/replies", &asAlice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])

	resp, body = do(t, srv, http.MethodGet, "/api/posts/"+id, &asAlice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["repliesCount"])

	resp, _ = do(t, srv, http.MethodPatch, "/api/replies/"+replyID, &asAlice, map[string]interface{}{
		"comment": "hijack",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "post owner cannot edit another author's reply")

	resp, _ = do(t, srv, http.MethodDelete, "/api/replies/"+replyID, &asAlice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "post owner can delete replies on their post")

	resp, _ = do(t, srv, http.MethodDelete, "/api/replies/"+replyID, &asAlice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "second delete looks missing")
}

func TestAPI_AdminSurface(t *testing.T) {
	srv := newTestServer(t)
	id := createPublished(t, srv, asAlice)

	resp, _ := do(t, srv, http.MethodPost, "/api/admin/posts/"+id+"/ban", &asBob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPost, "/api/admin/posts/"+id+"/ban", &asAdmin, map[string]interface{}{
		"reason": "spam",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "BANNED", body["stage"])
	assert.Equal(t, true, body["archived"])
	assert.Equal(t, "spam", body["banReason"])

	resp, body = do(t, srv, http.MethodGet, "/api/admin/posts/banned", &asAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, body = do(t, srv, http.MethodPost, "/api/admin/posts/"+id+"/unban", &asAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PUBLISHED", body["stage"])
	assert.Equal(t, true, body["archived"])

	// Deleted listing and recovery.
	resp, _ = do(t, srv, http.MethodDelete, "/api/posts/"+id, &asAlice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/api/admin/posts/deleted", &asAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, _ = do(t, srv, http.MethodGet, "/api/admin/posts/deleted/"+id, &asAdmin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/api/admin/posts/"+id+"/recover", &asAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PUBLISHED", body["stage"])
}

func TestAPI_HealthAlways200(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, []interface{}{"healthy", "unhealthy"}, body["status"])
}
