package annotations

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"sync"
	"testing"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/killallgit/diagram-annotator/internal/metrics"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/killallgit/diagram-annotator/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreService(t *testing.T) (Service, Repository, *database.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := NewRepository(db.DB)
	return NewService(repo, nil, metrics.New()), repo, db
}

func TestResolve_VisibilityByRole(t *testing.T) {
	ctx := context.Background()
	service, repo, db := newStoreService(t)

	task, templates := testutil.SeedTask(t, db, "first", 3)
	other, _ := testutil.SeedTask(t, db, "second", 2)

	// one template of the first task has been reviewed
	require.NoError(t, db.Model(&models.AnnotationRecord{}).
		Where("id = ?", templates[2].ID).
		Update("status", models.StatusFinalized).Error)

	instance, err := service.Open(ctx, templates[0].SampleID, "alice")
	require.NoError(t, err)
	_, err = service.Open(ctx, templates[1].SampleID, "bob")
	require.NoError(t, err)

	t.Run("anonymous sees reviewed templates only", func(t *testing.T) {
		got, err := service.Resolve(ctx, models.RoleAnonymous, nil, "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, templates[2].ID, got[0].ID)
	})

	t.Run("admin sees every template", func(t *testing.T) {
		got, err := service.Resolve(ctx, models.RoleAdmin, nil, "admin")
		require.NoError(t, err)
		assert.Len(t, got, 5)
		for _, r := range got {
			assert.True(t, r.IsTemplate)
		}

		got, err = service.Resolve(ctx, models.RoleAdmin, &other.ID, "admin")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("annotator sees own instance in place of its template", func(t *testing.T) {
		got, err := service.Resolve(ctx, models.RoleAnnotator, &task.ID, "alice")
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, instance.ID, got[0].ID)
		assert.False(t, got[0].IsTemplate)
		assert.Equal(t, "alice", got[0].Annotator)

		// bob's instance must not leak to alice
		assert.Equal(t, templates[1].ID, got[1].ID)
		assert.True(t, got[1].IsTemplate)
	})

	t.Run("one record per sample", func(t *testing.T) {
		got, err := service.Resolve(ctx, models.RoleAnnotator, nil, "alice")
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, r := range got {
			assert.False(t, seen[r.SampleID], "duplicate sample %s", r.SampleID)
			seen[r.SampleID] = true
		}
		assert.Len(t, seen, 5)
	})

	t.Run("filter on empty task yields nothing", func(t *testing.T) {
		missing := uint(999)
		got, err := service.Resolve(ctx, models.RoleAnnotator, &missing, "alice")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	_, err = repo.FindTemplate(ctx, templates[0].SampleID)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	ctx := context.Background()
	service, repo, db := newStoreService(t)
	_, templates := testutil.SeedTask(t, db, "t", 1)
	sampleID := templates[0].SampleID

	first, err := service.Open(ctx, sampleID, "alice")
	require.NoError(t, err)
	second, err := service.Open(ctx, sampleID, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := repo.CountBySample(ctx, sampleID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "template plus one instance")

	// the template is untouched by cloning
	tmpl, err := repo.FindTemplate(ctx, sampleID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotAnnotated, tmpl.Status)
	assert.Nil(t, tmpl.Nodes)
	assert.Empty(t, tmpl.Annotator)
}

func TestOpen_ConcurrentFirstAccess(t *testing.T) {
	ctx := context.Background()
	service, repo, db := newStoreService(t)
	_, templates := testutil.SeedTask(t, db, "t", 1)
	sampleID := templates[0].SampleID

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := service.Open(ctx, sampleID, "alice")
			errs[i] = err
			if err == nil {
				ids[i] = rec.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	instances, err := repo.ListInstances(ctx, nil, "alice")
	require.NoError(t, err)
	assert.Len(t, instances, 1)
}

func TestOpen_MissingTemplate(t *testing.T) {
	ctx := context.Background()
	service, _, db := newStoreService(t)
	_, templates := testutil.SeedTask(t, db, "t", 1)
	sampleID := templates[0].SampleID

	_, err := service.Open(ctx, sampleID, "alice")
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.AnnotationRecord{}, templates[0].ID).Error)

	_, err = service.Open(ctx, sampleID, "bob")
	assert.True(t, apperrors.IsIntegrityFault(err))

	_, err = service.Open(ctx, "00000000-0000-0000-0000-000000000000", "bob")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSave_Lifecycle(t *testing.T) {
	ctx := context.Background()
	service, repo, db := newStoreService(t)
	_, templates := testutil.SeedTask(t, db, "t", 1)

	instance, err := service.Open(ctx, templates[0].SampleID, "alice")
	require.NoError(t, err)

	steps := []struct {
		action string
		want   models.Status
	}{
		{action: "save", want: models.StatusInProgress},
		{action: "finalize", want: models.StatusFinalized},
		// a finalized instance may be saved again and reopens
		{action: "save", want: models.StatusInProgress},
		{action: "finalize", want: models.StatusFinalized},
		{action: "finalize", want: models.StatusFinalized},
	}

	for i, step := range steps {
		nodes := models.Nodes{models.CategoryVerbosity: {strings.Repeat("n", i+1)}}
		status, err := service.Save(ctx, instance.ID, SaveRequest{
			Action:  step.action,
			Nodes:   nodes,
			Missing: models.StringList{"m"},
			Notes:   "note",
		})
		require.NoError(t, err)
		assert.Equal(t, step.want, status)

		stored, err := repo.GetRecordByID(ctx, instance.ID)
		require.NoError(t, err)
		assert.Equal(t, step.want, stored.Status)
		assert.Equal(t, nodes, stored.Nodes)
		assert.Equal(t, models.StringList{"m"}, stored.Missing)
		assert.Equal(t, "note", stored.Notes)
	}

	_, err = service.Save(ctx, templates[0].ID, SaveRequest{Action: "finalize"})
	assert.True(t, apperrors.IsValidation(err))

	tmpl, err := repo.GetRecordByID(ctx, templates[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotAnnotated, tmpl.Status)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	service, _, db := newStoreService(t)

	task := models.Task{Name: "t"}
	require.NoError(t, db.Create(&task).Error)
	multiline := &models.AnnotationRecord{
		TaskID:     task.ID,
		SampleID:   "s-multi",
		Code:       "func main() {\r\n\tprintln(\"hi, there\")\n}",
		Diagram:    "classDiagram\nclass A",
		Query:      "why\n?",
		IsTemplate: true,
	}
	require.NoError(t, db.Create(multiline).Error)
	_, _ = testutil.SeedTask(t, db, "other", 2)

	_, err := service.Open(ctx, "s-multi", "alice")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, service.Export(ctx, &buf, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 1+4, "header plus one line per record")

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, ExportHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "s-multi", first[1])
	assert.Equal(t, `func main() {\r\n`+"\t"+`println("hi, there")\n}`, first[5])
	assert.Equal(t, `why\n?`, first[8])
	assert.Equal(t, `""`, first[12], "template nodes are the placeholder")
	assert.Equal(t, "Not Annotated", first[14])
	assert.Equal(t, "true", first[15])

	clone := rows[4]
	assert.Equal(t, "alice", clone[3])
	assert.Equal(t, "false", clone[15])
	assert.Contains(t, clone[12], `"Sufficiency":[]`)

	t.Run("task filter", func(t *testing.T) {
		var filtered bytes.Buffer
		require.NoError(t, service.Export(ctx, &filtered, &task.ID))
		rows, err := csv.NewReader(&filtered).ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}
