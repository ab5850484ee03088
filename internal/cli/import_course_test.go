package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-quiz-service/internal/domain"
	"course-quiz-service/internal/infra/memory"
)

const algebraYAML = `
id: algebra-1
title: Algebra basics
quiz:
  - id: q1
    question: Solve x + 1 = 3
    options: ["1", "2", "3"]
  - id: q2
    question: Is 0 even?
    options: ["yes", "no"]
`

const geometryJSON = `[
  {"id": "geometry-1", "title": "Shapes", "quiz": [
    {"id": "q1", "question": "How many sides has a triangle?", "options": ["3", "4"]}
  ]}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportCoursesFromYAMLAndJSON(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend(nil, nil)

	ids, err := importCourses(ctx, backend, []string{
		writeFile(t, "algebra.yaml", algebraYAML),
		writeFile(t, "geometry.json", geometryJSON),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"algebra-1", "geometry-1"}, ids)

	course, err := backend.GetCourse(ctx, "algebra-1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra basics", course.Title)
	require.Len(t, course.Quiz, 2)
	assert.Equal(t, []string{"yes", "no"}, course.Quiz[1].Options)

	refs, err := backend.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestImportCourseKeepsResponses(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend([]domain.Course{{ID: "algebra-1", Title: "Old title"}}, nil)
	submission := domain.Submission{ID: "sub-1", User: "0xabc"}
	require.NoError(t, backend.AppendResponse(ctx, "algebra-1", submission))

	_, err := importCourses(ctx, backend, []string{writeFile(t, "algebra.yaml", algebraYAML)})
	require.NoError(t, err)

	course, err := backend.GetCourse(ctx, "algebra-1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra basics", course.Title)
	assert.Equal(t, []domain.Submission{submission}, course.Responses)
}

func TestImportCoursesRejectsInvalidFilesBeforeSaving(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend(nil, nil)
	invalid := writeFile(t, "broken.yaml", "id: broken\ntitle: Broken\nquiz:\n  - id: q1\n    question: Only one option\n    options: [\"a\"]\n")

	_, err := importCourses(ctx, backend, []string{writeFile(t, "algebra.yaml", algebraYAML), invalid})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)

	_, err = backend.GetCourse(ctx, "algebra-1")
	assert.Equal(t, domain.ErrCourseNotFound, err, "nothing should be saved when a file is invalid")

	_, err = importCourses(ctx, backend, []string{filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestImportCourseCmdRefusesMemoryBackend(t *testing.T) {
	path := writeFile(t, "config.yaml", "backend:\n  driver: memory\n")
	cmd := NewImportCourseCmd(&path)
	cmd.SetArgs([]string{writeFile(t, "algebra.yaml", algebraYAML)})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}
