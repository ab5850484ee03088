package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"course-quiz-service/internal/config"
	"course-quiz-service/internal/domain"
	redisstore "course-quiz-service/internal/infra/redis"
)

// courseSaver is implemented by backends that accept course definitions.
type courseSaver interface {
	SaveCourse(ctx context.Context, course domain.Course) error
}

// NewImportCourseCmd loads course definitions from YAML or JSON files into the backend.
func NewImportCourseCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import-course <file>...",
		Short: "Create or replace courses and their question banks from YAML/JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportCourses(cmd.Context(), *configPath, args)
		},
	}
}

func runImportCourses(ctx context.Context, configPath string, paths []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Backend.Driver == "" || cfg.Backend.Driver == "memory" {
		return fmt.Errorf("import-course needs a persistent backend, got %q", cfg.Backend.Driver)
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	saver, ok := backend.(courseSaver)
	if !ok {
		return fmt.Errorf("backend %q cannot store courses", cfg.Backend.Driver)
	}

	imported, err := importCourses(ctx, saver, paths)
	if err != nil {
		return err
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient == nil {
		return nil
	}
	defer redisClient.Close()
	banks := redisstore.NewQuestionBankRepository(redisClient, backend, 0)
	for _, id := range imported {
		if err := banks.Invalidate(ctx, id); err != nil {
			log.Printf("%v", err)
		}
	}
	return nil
}

// importCourses validates every file before saving any course and returns the saved IDs.
func importCourses(ctx context.Context, saver courseSaver, paths []string) ([]string, error) {
	validate := validator.New()
	var courses []domain.Course
	for _, path := range paths {
		parsed, err := readCourses(path)
		if err != nil {
			return nil, err
		}
		for _, course := range parsed {
			if err := validate.Struct(course); err != nil {
				return nil, errors.Wrapf(domain.ErrInvalidInput, "%s: course %q: %v", path, course.ID, err)
			}
			if len(course.Responses) > 0 {
				return nil, errors.Wrapf(domain.ErrInvalidInput, "%s: course %q: responses cannot be imported", path, course.ID)
			}
		}
		courses = append(courses, parsed...)
	}

	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		if err := saver.SaveCourse(ctx, course); err != nil {
			return ids, err
		}
		log.Printf("imported course %s with %d questions", course.ID, len(course.Quiz))
		ids = append(ids, course.ID)
	}
	return ids, nil
}

// readCourses parses one course or a list of courses. JSON files parse as YAML.
func readCourses(path string) ([]domain.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if len(root.Content) == 0 {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "%s is empty", path)
	}

	var courses []domain.Course
	if root.Content[0].Kind == yaml.SequenceNode {
		err = root.Content[0].Decode(&courses)
	} else {
		var course domain.Course
		err = root.Content[0].Decode(&course)
		courses = append(courses, course)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return courses, nil
}
