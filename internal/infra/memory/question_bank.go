package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"course-quiz-service/internal/domain"
)

// CourseLoader fetches a course from the backend.
type CourseLoader interface {
	GetCourse(ctx context.Context, courseID string) (domain.Course, error)
}

// QuestionBankRepository caches course question banks with TTL to avoid repeated backend hits.
type QuestionBankRepository struct {
	loader CourseLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBankRepository(loader CourseLoader, ttl time.Duration) *QuestionBankRepository {
	return &QuestionBankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *QuestionBankRepository) GetQuestionBank(ctx context.Context, courseID string) ([]domain.Question, error) {
	if questions, ok := r.lookup(courseID, r.clock()); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(courseID, func() (interface{}, error) {
		now := r.clock()
		if questions, ok := r.lookup(courseID, now); ok {
			return questions, nil
		}

		course, err := r.loader.GetCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[courseID] = cachedBank{
			questions: course.Quiz,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return course.Quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops a cached bank, e.g. after the course was edited.
func (r *QuestionBankRepository) Invalidate(courseID string) {
	r.mu.Lock()
	delete(r.cache, courseID)
	r.mu.Unlock()
}

func (r *QuestionBankRepository) lookup(courseID string, now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[courseID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (r *QuestionBankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
