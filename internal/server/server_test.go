package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/pipeline"
	"github.com/sells-group/keyword-cli/internal/session"
)

const businessCSV = "상호명,주소(도로명),주요서비스\n강남카페,서울특별시 강남구 역삼동 123,\"카페, 디저트\"\n"

func testConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{RadiusStartKM: 1, RadiusMaxKM: 1, RadiusStepKM: 1, CompetitionMinCount: 30},
		Keywords: config.KeywordsConfig{
			Patterns:       [][]string{{"region", "service"}, {"region", "service", "modifier"}},
			ModifiersTiers: [][]string{{"추천"}},
		},
		Output: config.OutputConfig{KeywordsPerGroup: 4, Format: config.FormatCSV, Encoding: config.EncodingUTF8},
		Server: config.ServerConfig{PreviewLimit: 3},
		POIs: config.POIConfig{FilterSets: map[string]config.FilterSet{
			"strict": {AllowedCategories: map[string][]string{"subway": {"지하철"}}},
		}},
	}
}

func setupServer(t *testing.T) (http.Handler, *session.Store) {
	t.Helper()
	p := pipeline.New(testConfig(), pipeline.NewStubMapsClient(), pipeline.StubLocalClient{})
	store := session.NewStore(time.Hour)
	return New(p, store).Handler(), store
}

type upload struct {
	field, name, body string
}

func multipartRequest(t *testing.T, uploads []upload, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, u := range uploads {
		fw, err := writer.CreateFormFile(u.field, u.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(u.body))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) resultResponse {
	t.Helper()
	var resp resultResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func generate(t *testing.T, h http.Handler, adGroups string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(h, multipartRequest(t, []upload{
		{"input_csv", "input.csv", businessCSV},
		{"ad_groups_csv", "ad_groups.csv", adGroups},
	}, fields))
}

func TestHealth(t *testing.T) {
	h, _ := setupServer(t)
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestOptions(t *testing.T) {
	h, _ := setupServer(t)
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp optionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"region,service", "region,service,modifier"}, resp.PatternOptions)
	assert.Equal(t, []string{"strict"}, resp.POIFilterSets)
	assert.Equal(t, 4, resp.KeywordsPerGroup)
}

func TestGenerate_Success(t *testing.T) {
	h, store := setupServer(t)

	rr := generate(t, h, "ad_group_id\ng1\ng2\n", map[string]string{"output_name": "gangnam"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode(t, rr)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "/api/download/"+resp.Token, resp.DownloadURL)
	assert.Equal(t, "gangnam", resp.OutputName)
	assert.Equal(t, 8, resp.TargetTotal)
	assert.Equal(t, 8, resp.GeneratedTotal)
	assert.Empty(t, resp.Warning)
	assert.Len(t, resp.Preview, 3)
	assert.Equal(t, "g1", resp.Preview[0].AdGroupID)
	assert.Equal(t, "서울카페", resp.Preview[0].Keyword)
	assert.Equal(t, []string{"추천"}, resp.Components.Modifiers)
	assert.Equal(t, []string{"region,service", "region,service,modifier"}, resp.SelectedPatterns)
	assert.Equal(t, "default", resp.POIFilterSet)

	entry, ok := store.Get(resp.Token)
	require.True(t, ok)
	assert.Equal(t, []string{"g1", "g2"}, entry.AdGroupIDs)
	assert.Equal(t, 4, entry.KeywordsPerGroup)
}

func TestGenerate_ShortfallWarning(t *testing.T) {
	h, _ := setupServer(t)

	ids := "ad_group_id\n" + strings.Repeat("g\n", 10)
	rr := generate(t, h, ids, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode(t, rr)
	assert.Equal(t, 40, resp.TargetTotal)
	assert.Equal(t, 16, resp.GeneratedTotal)
	assert.Equal(t, 24, resp.Shortfall)
	assert.Equal(t, "키워드가 부족합니다. 생성 16개 / 필요 40개", resp.Warning)
}

func TestGenerate_MissingFile(t *testing.T) {
	h, _ := setupServer(t)
	rr := serve(h, multipartRequest(t, []upload{{"input_csv", "input.csv", businessCSV}}, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "ad_groups_csv is required")
}

func TestGenerate_MissingColumns(t *testing.T) {
	h, _ := setupServer(t)
	rr := serve(h, multipartRequest(t, []upload{
		{"input_csv", "input.csv", "상호명,주소\n가게,서울\n"},
		{"ad_groups_csv", "ad_groups.csv", "ad_group_id\ng1\n"},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "주요서비스")
}

func TestGenerate_NoAdGroups(t *testing.T) {
	h, _ := setupServer(t)
	rr := generate(t, h, "ad_group_id\n\n", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerate_NotMultipart(t *testing.T) {
	h, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownload_OneShot(t *testing.T) {
	h, _ := setupServer(t)
	resp := decode(t, generate(t, h, "ad_group_id\ng1\ng2\n", map[string]string{"output_name": "gangnam"}))

	rr := serve(h, httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="gangnam.zip"`)

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"ad_group_0001.csv", "ad_group_0002.csv"}, names)

	rr = serve(h, httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDownload_UnknownToken(t *testing.T) {
	h, _ := setupServer(t)
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/api/download/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func regenerateRequestBody(t *testing.T, req regenerateRequest) *http.Request {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/regenerate", bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestRegenerate(t *testing.T) {
	h, store := setupServer(t)
	first := decode(t, generate(t, h, "ad_group_id\ng1\n", map[string]string{
		"output_name":    "custom",
		"poi_filter_set": "strict",
	}))

	rr := serve(h, regenerateRequestBody(t, regenerateRequest{
		Token:          first.Token,
		Regions:        "강남\n역삼",
		Services:       "카페",
		Modifiers:      "추천, 가격",
		Patterns:       []string{"Region+Service"},
		PatternsCustom: "region,service,modifier",
	}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode(t, rr)
	assert.NotEqual(t, first.Token, resp.Token)
	assert.Equal(t, "custom", resp.OutputName)
	assert.Equal(t, "strict", resp.POIFilterSet)
	assert.Equal(t, 4, resp.TargetTotal)
	assert.Equal(t, 4, resp.GeneratedTotal)
	assert.Equal(t, []string{"region,service", "region,service,modifier"}, resp.SelectedPatterns)
	assert.Equal(t, []string{"강남", "역삼"}, resp.Components.Regions)
	assert.Equal(t, "강남카페", resp.Preview[0].Keyword)

	entry, ok := store.Get(resp.Token)
	require.True(t, ok)
	assert.Equal(t, []string{"g1"}, entry.AdGroupIDs)
}

func TestRegenerate_FallsBackToConfiguredPatterns(t *testing.T) {
	h, _ := setupServer(t)
	first := decode(t, generate(t, h, "ad_group_id\ng1\n", nil))

	rr := serve(h, regenerateRequestBody(t, regenerateRequest{
		Token:    first.Token,
		Regions:  "강남",
		Services: "카페",
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode(t, rr)
	assert.Equal(t, []string{"region,service", "region,service,modifier"}, resp.SelectedPatterns)
	assert.Equal(t, 1, resp.GeneratedTotal)
	assert.Contains(t, resp.Warning, "생성 1개 / 필요 4개")
}

func TestRegenerate_UnknownToken(t *testing.T) {
	h, _ := setupServer(t)
	rr := serve(h, regenerateRequestBody(t, regenerateRequest{Token: "expired"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "세션이 만료되었습니다")
}

func TestRegenerate_BadBody(t *testing.T) {
	h, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/regenerate", strings.NewReader("not json"))
	rr := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := serve(h, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	h, _ := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", h) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
