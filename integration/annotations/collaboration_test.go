package annotations_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api"
	"github.com/killallgit/diagram-annotator/api/apitest"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/killallgit/diagram-annotator/internal/services/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// IntegrationTestSuite runs the full server over a file-backed store
type IntegrationTestSuite struct {
	t      *testing.T
	dbPath string
	db     *database.DB
	server *httptest.Server
	once   sync.Once
}

func setupIntegrationTestSuite(t *testing.T, dbPath string) *IntegrationTestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitializeWithMigrations(dbPath, false)
	require.NoError(t, err, "Failed to open test database")

	cfg := apitest.Config()
	server := api.NewServer(cfg.Addr(), cfg.Server)
	server.SetDependencies(&types.Dependencies{DB: db, Config: cfg, Logger: zap.NewNop()})
	require.NoError(t, server.Initialize(), "Failed to initialize server")

	suite := &IntegrationTestSuite{
		t:      t,
		dbPath: dbPath,
		db:     db,
		server: httptest.NewServer(server.Engine()),
	}
	t.Cleanup(suite.close)
	return suite
}

func (suite *IntegrationTestSuite) close() {
	suite.once.Do(func() {
		suite.server.Close()
		_ = suite.db.Close()
	})
}

// session is one browser: its cookie jar carries the login
type session struct {
	suite  *IntegrationTestSuite
	client *http.Client
}

func (suite *IntegrationTestSuite) login(username, password string) *session {
	suite.t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(suite.t, err)
	s := &session{suite: suite, client: &http.Client{Jar: jar}}

	status, body := s.call(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": username, "password": password})
	require.Equal(suite.t, http.StatusOK, status, "login %s: %s", username, body)
	return s
}

func (s *session) call(method, path string, payload any) (int, []byte) {
	s.suite.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.suite.t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.suite.server.URL+path, body)
	require.NoError(s.suite.t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	require.NoError(s.suite.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(s.suite.t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

func TestCollaborativeAnnotation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "annotator.db")
	suite := setupIntegrationTestSuite(t, dbPath)

	bootstrap := users.NewService(users.NewRepository(suite.db.DB), nil)
	created, err := bootstrap.EnsureAdmin(context.Background(), "root", "root-pw")
	require.NoError(t, err)
	require.True(t, created)

	admin := suite.login("root", "root-pw")

	// Step 1: the admin creates annotators and uploads a dataset
	annotators := []string{"alice", "bob", "carol"}
	for _, name := range annotators {
		status, body := admin.call(http.MethodPost, "/api/v1/admin/users",
			map[string]string{"username": name, "password": name + "-pw"})
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	samples := make([]map[string]string, 3)
	for i := range samples {
		samples[i] = map[string]string{
			"language": "go",
			"code":     fmt.Sprintf("func f%d() {\n\treturn\n}", i),
			"diagram":  fmt.Sprintf("classDiagram\nclass F%d {\n\t+toString()\n}", i),
		}
	}
	status, body := admin.call(http.MethodPost, "/api/v1/admin/upload",
		map[string]any{"task_name": "batch-1", "samples": samples})
	require.Equal(t, http.StatusCreated, status, string(body))
	upload := decode[types.UploadResponse](t, body)
	require.Equal(t, 3, upload.Samples)

	// Step 2: every annotator opens and saves the same sample at once
	sessions := make(map[string]*session, len(annotators))
	for _, name := range annotators {
		sessions[name] = suite.login(name, name+"-pw")
	}

	status, body = sessions["alice"].call(http.MethodGet, "/api/v1/dataset", nil)
	require.Equal(t, http.StatusOK, status)
	sampleID := decode[types.DatasetResponse](t, body).Records[0].SampleID

	type result struct {
		openStatus, saveStatus int
		opened, saved          []byte
	}
	results := make(map[string]*result, len(annotators))
	for _, name := range annotators {
		results[name] = &result{}
	}

	var wg sync.WaitGroup
	for _, name := range annotators {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s, r := sessions[name], results[name]
			r.openStatus, r.opened = s.call(http.MethodGet, "/api/v1/annotate/"+sampleID, nil)
			r.saveStatus, r.saved = s.call(http.MethodPost, "/api/v1/annotate/"+sampleID, map[string]any{
				"action": "finalize",
				"nodes":  map[string][]string{"Sufficiency": {name}},
				"notes":  "by " + name,
			})
		}(name)
	}
	wg.Wait()

	saved := make(map[string]types.SaveResponse, len(annotators))
	for name, r := range results {
		require.Equal(t, http.StatusOK, r.openStatus, string(r.opened))
		opened := decode[types.AnnotateResponse](t, r.opened)
		assert.Equal(t, name, opened.Record.Annotator)
		assert.NotContains(t, opened.RenderedDiagram, "\t")

		require.Equal(t, http.StatusOK, r.saveStatus, string(r.saved))
		saved[name] = decode[types.SaveResponse](t, r.saved)
		assert.Equal(t, opened.Record.ID, saved[name].ID)
	}

	// Step 3: each annotator only ever sees their own work
	for _, name := range annotators {
		status, body := sessions[name].call(http.MethodGet, "/api/v1/dataset", nil)
		require.Equal(t, http.StatusOK, status)
		listing := decode[types.DatasetResponse](t, body)
		require.Equal(t, 3, listing.Count)

		mine := listing.Records[0]
		assert.Equal(t, saved[name].ID, mine.ID)
		assert.Equal(t, name, mine.Annotator)
		assert.Equal(t, "by "+name, mine.Notes)
		assert.Equal(t, models.StatusFinalized, mine.Status)
	}

	// Step 4: the export holds three templates and three instances
	status, body = admin.call(http.MethodGet, "/api/v1/admin/export", nil)
	require.Equal(t, http.StatusOK, status)
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	assert.Len(t, lines, 1+3+3)

	// Step 5: logging out ends the session
	status, _ = sessions["bob"].call(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = sessions["bob"].call(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAnnotationsSurviveRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "annotator.db")
	first := setupIntegrationTestSuite(t, dbPath)

	bootstrap := users.NewService(users.NewRepository(first.db.DB), nil)
	_, err := bootstrap.EnsureAdmin(context.Background(), "root", "root-pw")
	require.NoError(t, err)

	admin := first.login("root", "root-pw")
	status, body := admin.call(http.MethodPost, "/api/v1/admin/upload", map[string]any{
		"task_name": "persisted",
		"samples":   []map[string]string{{"code": "x", "diagram": "classDiagram"}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = admin.call(http.MethodGet, "/api/v1/dataset", nil)
	require.Equal(t, http.StatusOK, status)
	sampleID := decode[types.DatasetResponse](t, body).Records[0].SampleID

	status, body = admin.call(http.MethodPost, "/api/v1/annotate/"+sampleID, map[string]any{
		"nodes": map[string][]string{"Verbosity": {"A"}},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.StatusInProgress, decode[types.SaveResponse](t, body).RecordStatus)

	first.close()

	second := setupIntegrationTestSuite(t, dbPath)
	admin = second.login("root", "root-pw")
	status, body = admin.call(http.MethodGet, "/api/v1/admin/annotations", nil)
	require.Equal(t, http.StatusOK, status)
	records := decode[types.AnnotationsResponse](t, body)
	require.Equal(t, 2, records.Count, "template plus the admin's instance")

	var instance *models.AnnotationRecord
	for i := range records.Records {
		if !records.Records[i].IsTemplate {
			instance = &records.Records[i]
		}
	}
	require.NotNil(t, instance)
	assert.Equal(t, models.Nodes{models.CategoryVerbosity: {"A"}}, instance.Nodes)
	assert.Equal(t, models.StatusInProgress, instance.Status)
}
