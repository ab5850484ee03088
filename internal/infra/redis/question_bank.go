package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"course-quiz-service/internal/domain"
)

// CourseLoader fetches a course from the backend.
type CourseLoader interface {
	GetCourse(ctx context.Context, courseID string) (domain.Course, error)
}

// QuestionBankRepository caches course question banks in Redis and falls back to the loader on a miss.
// Banks are stored as JSON: SET course:{courseID}:quiz [{id,question,options}...]
type QuestionBankRepository struct {
	client *redis.Client
	loader CourseLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionBankRepository(client *redis.Client, loader CourseLoader, ttl time.Duration) *QuestionBankRepository {
	return &QuestionBankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionBankRepository) GetQuestionBank(ctx context.Context, courseID string) ([]domain.Question, error) {
	key := r.key(courseID)
	if questions, ok := r.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(courseID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, key); ok {
			return questions, nil
		}

		course, err := r.loader.GetCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(course.Quiz)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal question bank for course %s", courseID)
		}
		// Cache fill is best-effort; the loaded bank is still served.
		if err := r.client.Set(ctx, key, data, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("cache question bank for course %s: %v", courseID, err)
		}
		return course.Quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops a cached bank, e.g. after the course was edited.
func (r *QuestionBankRepository) Invalidate(ctx context.Context, courseID string) error {
	return errors.Wrapf(r.client.Del(ctx, r.key(courseID)).Err(), "invalidate course %s", courseID)
}

func (r *QuestionBankRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached question bank %s: %v", key, err)
		}
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		log.Printf("decode cached question bank %s: %v", key, err)
		return nil, false
	}
	return questions, true
}

func (r *QuestionBankRepository) key(courseID string) string {
	return "course:" + courseID + ":quiz"
}

func (r *QuestionBankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
