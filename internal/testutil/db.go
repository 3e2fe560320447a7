// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/stretchr/testify/require"
)

// NewDB returns a migrated in-memory database closed at test cleanup
func NewDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.InitializeWithMigrations(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SeedTask inserts a task with n templates and returns it with the templates
func SeedTask(t *testing.T, db *database.DB, name string, n int) (models.Task, []models.AnnotationRecord) {
	t.Helper()
	task := models.Task{Name: name}
	require.NoError(t, db.Create(&task).Error)

	templates := make([]models.AnnotationRecord, n)
	for i := range templates {
		templates[i] = models.AnnotationRecord{
			TaskID:     task.ID,
			SampleID:   uuid.NewString(),
			Language:   "go",
			Code:       "package main",
			Diagram:    "classDiagram\nclass Main",
			IsTemplate: true,
			Status:     models.StatusNotAnnotated,
		}
	}
	if n > 0 {
		require.NoError(t, db.Create(&templates).Error)
	}
	return task, templates
}
