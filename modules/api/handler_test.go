package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palette-makeup-server/modules/caption"
	"palette-makeup-server/modules/generation"
	"palette-makeup-server/modules/handle"
	"palette-makeup-server/modules/palette"
	"palette-makeup-server/modules/pipeline"
	"palette-makeup-server/modules/session"
)

type stubCaptioner struct{}

func (stubCaptioner) Caption(context.Context, caption.Input) (string, error) {
	return "a person", nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (*generation.Output, error) {
	return &generation.Output{Data: []byte("generated"), MimeType: "image/png"}, nil
}

type stubNamer struct{}

func (stubNamer) NameColors(_ context.Context, hexes []string) ([]string, error) {
	out := make([]string, len(hexes))
	for i := range hexes {
		out[i] = "Crimson"
	}
	return out, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *handle.Registry) {
	t.Helper()
	handles := handle.NewRegistry()
	ex, err := palette.NewExtractor(palette.MethodDominantColor, 64)
	require.NoError(t, err)

	sm := session.NewManager(func(id string, onChange func(pipeline.Snapshot)) *pipeline.Controller {
		return pipeline.NewController(pipeline.Deps{
			ID:         id,
			Extractor:  ex,
			ColorCount: 3,
			Namer:      stubNamer{},
			Captioner:  stubCaptioner{},
			Generator:  stubGenerator{},
			Handles:    handles,
			Timeout:    5 * time.Second,
			OnChange:   onChange,
		})
	}, time.Hour)
	t.Cleanup(sm.CloseAll)

	srv := httptest.NewServer(NewRouter(sm, handles))
	t.Cleanup(srv.Close)
	return srv, handles
}

func solidPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.SetRGBA(x, y, color.RGBA{180, 30, 60, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadBody(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("image", "face.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func getState(t *testing.T, srv *httptest.Server, id string) pipeline.Snapshot {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[pipeline.Snapshot](t, resp)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/", "/health"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body := decode[map[string]string](t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestFullFlow(t *testing.T) {
	srv, handles := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[CreateSessionResponse](t, resp)
	require.NotEmpty(t, created.SessionId)
	assert.Equal(t, pipeline.AnalysisEmpty, created.State.Analysis)

	// 준비 전 generate 는 no-op
	resp, err = http.Post(srv.URL+"/api/sessions/"+created.SessionId+"/generate", "application/json", nil)
	require.NoError(t, err)
	gen := decode[GenerateResponse](t, resp)
	assert.False(t, gen.Started)

	body, ct := uploadBody(t, solidPNG(t))
	resp, err = http.Post(srv.URL+"/api/sessions/"+created.SessionId+"/image", ct, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := decode[pipeline.Snapshot](t, resp)
	require.NotNil(t, snap.Image)

	// 업로드 미리보기 핸들
	imgResp, err := http.Get(srv.URL + snap.Image.URL)
	require.NoError(t, err)
	imgResp.Body.Close()
	assert.Equal(t, http.StatusOK, imgResp.StatusCode)
	assert.Equal(t, "image/png", imgResp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		return getState(t, srv, created.SessionId).CanGenerate
	}, 3*time.Second, 20*time.Millisecond)
	snap = getState(t, srv, created.SessionId)
	require.NotEmpty(t, snap.HexPalette)
	assert.Len(t, snap.ColorNames, len(snap.HexPalette))

	resp, err = http.Post(srv.URL+"/api/sessions/"+created.SessionId+"/generate", "application/json", nil)
	require.NoError(t, err)
	gen = decode[GenerateResponse](t, resp)
	assert.True(t, gen.Started)

	require.Eventually(t, func() bool {
		return getState(t, srv, created.SessionId).Generation == pipeline.GenerationImageReady
	}, 3*time.Second, 20*time.Millisecond)
	snap = getState(t, srv, created.SessionId)
	require.NotNil(t, snap.Result)
	assert.Contains(t, snap.Prompt, snap.HexPalette[0])

	resultResp, err := http.Get(srv.URL + snap.Result.URL)
	require.NoError(t, err)
	defer resultResp.Body.Close()
	assert.Equal(t, http.StatusOK, resultResp.StatusCode)
	assert.Equal(t, 2, handles.Count())

	// 빈 업로드는 초기화
	body, ct = uploadBody(t, nil)
	resp, err = http.Post(srv.URL+"/api/sessions/"+created.SessionId+"/image", ct, body)
	require.NoError(t, err)
	snap = decode[pipeline.Snapshot](t, resp)
	assert.Equal(t, pipeline.AnalysisEmpty, snap.Analysis)
	assert.Nil(t, snap.Result)
	assert.Equal(t, 0, handles.Count())

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	m := decode[map[string]interface{}](t, metrics)
	server := m["server"].(map[string]interface{})
	assert.Equal(t, float64(1), server["totalGenerations"])
}

func TestUploadDecodeFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	created := decode[CreateSessionResponse](t, resp)

	body, ct := uploadBody(t, []byte("not an image"))
	resp, err = http.Post(srv.URL+"/api/sessions/"+created.SessionId+"/image", ct, body)
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return getState(t, srv, created.SessionId).Analysis == pipeline.AnalysisDecodeFailed
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, pipeline.MsgDecodeFailed, getState(t, srv, created.SessionId).AnalysisError)
}

func TestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/sessions/nope")
	require.NoError(t, err)
	e := decode[ErrorResponse](t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Session not found", e.Error)

	resp, err = http.Post(srv.URL+"/api/sessions/nope/generate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/blobs/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestForceCleanup(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/admin/cleanup", "application/json", nil)
	require.NoError(t, err)
	body := decode[map[string]interface{}](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cleanup completed", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/sessions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
