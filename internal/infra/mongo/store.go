package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"course-quiz-service/internal/domain"
)

const (
	courseCollection = "Course"
	poapCollection   = "POAP"
	userCollection   = "User"
)

type courseDocument struct {
	ID        string              `bson:"_id"`
	Title     string              `bson:"title"`
	Quiz      []domain.Question   `bson:"quiz"`
	Responses []domain.Submission `bson:"responses"`
}

type userDocument struct {
	ID               string   `bson:"_id"`
	CoursesCompleted []string `bson:"coursesCompleted"`
}

type poapDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Image     string    `bson:"image"`
	MintLinks []string  `bson:"mintLinks"`
	AdminLink string    `bson:"adminLink"`
	Course    string    `bson:"course,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store keeps courses, users and POAPs as MongoDB documents.
// Responses are append-unique by id; completed courses use $addToSet.
type Store struct {
	client  *mongo.Client
	courses *mongo.Collection
	users   *mongo.Collection
	poaps   *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		client:  db.Client(),
		courses: db.Collection(courseCollection),
		users:   db.Collection(userCollection),
		poaps:   db.Collection(poapCollection),
	}
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (domain.Course, error) {
	var doc courseDocument
	err := s.courses.FindOne(ctx, bson.M{"_id": courseID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, errors.Wrapf(err, "load course %s", courseID)
	}
	return domain.Course{ID: doc.ID, Title: doc.Title, Quiz: doc.Quiz, Responses: doc.Responses}, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.CourseRef, error) {
	opts := options.Find().
		SetProjection(bson.M{"title": 1}).
		SetSort(bson.M{"_id": 1})
	cursor, err := s.courses.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	defer cursor.Close(ctx)

	var docs []courseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode courses")
	}
	refs := make([]domain.CourseRef, 0, len(docs))
	for _, doc := range docs {
		refs = append(refs, domain.CourseRef{ID: doc.ID, Title: doc.Title})
	}
	return refs, nil
}

// SaveCourse inserts or replaces a course's title and question bank; responses are kept.
func (s *Store) SaveCourse(ctx context.Context, course domain.Course) error {
	_, err := s.courses.UpdateOne(ctx,
		bson.M{"_id": course.ID},
		bson.M{
			"$set":         bson.M{"title": course.Title, "quiz": course.Quiz},
			"$setOnInsert": bson.M{"responses": bson.A{}},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "save course %s", course.ID)
}

func (s *Store) AppendResponse(ctx context.Context, courseID string, submission domain.Submission) error {
	return s.appendResponse(ctx, courseID, submission)
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, errors.Wrapf(err, "load user %s", userID)
	}
	return domain.User{ID: doc.ID, CoursesCompleted: doc.CoursesCompleted}, nil
}

func (s *Store) AddCompletedCourse(ctx context.Context, userID, courseID string) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"coursesCompleted": courseID}},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "add completed course %s for user %s", courseID, userID)
}

// RecordSubmission writes both documents in a multi-document transaction.
// Transactions need a replica set or sharded cluster.
func (s *Store) RecordSubmission(ctx context.Context, courseID string, submission domain.Submission) error {
	session, err := s.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := s.appendResponse(sc, courseID, submission); err != nil {
			return nil, err
		}
		return nil, s.AddCompletedCourse(sc, submission.User, courseID)
	})
	return err
}

func (s *Store) ListPOAPs(ctx context.Context) ([]domain.POAP, error) {
	cursor, err := s.poaps.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list poaps")
	}
	defer cursor.Close(ctx)

	var docs []poapDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode poaps")
	}
	poaps := make([]domain.POAP, 0, len(docs))
	for _, doc := range docs {
		poaps = append(poaps, domain.POAP{
			ID:        doc.ID,
			Name:      doc.Name,
			Image:     doc.Image,
			MintLinks: doc.MintLinks,
			AdminLink: doc.AdminLink,
			CourseID:  doc.Course,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return poaps, nil
}

func (s *Store) CreatePOAP(ctx context.Context, poap domain.POAP) error {
	_, err := s.poaps.InsertOne(ctx, poapDocument{
		ID:        poap.ID,
		Name:      poap.Name,
		Image:     poap.Image,
		MintLinks: poap.MintLinks,
		AdminLink: poap.AdminLink,
		Course:    poap.CourseID,
		CreatedAt: poap.CreatedAt,
		UpdatedAt: poap.UpdatedAt,
	})
	return errors.Wrapf(err, "insert poap %s", poap.ID)
}

func (s *Store) AssignCourse(ctx context.Context, poapID, courseID string) error {
	result, err := s.poaps.UpdateOne(ctx,
		bson.M{"_id": poapID},
		bson.M{"$set": bson.M{"course": courseID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return errors.Wrapf(err, "assign course %s to poap %s", courseID, poapID)
	}
	if result.MatchedCount == 0 {
		return domain.ErrPOAPNotFound
	}
	return nil
}

// appendResponse pushes the submission unless a response with its id is already present.
func (s *Store) appendResponse(ctx context.Context, courseID string, submission domain.Submission) error {
	result, err := s.courses.UpdateOne(ctx,
		bson.M{"_id": courseID, "responses.id": bson.M{"$ne": submission.ID}},
		bson.M{"$push": bson.M{"responses": submission}},
	)
	if err != nil {
		return errors.Wrapf(err, "append response to course %s", courseID)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	// Nothing matched: either the response is already there or the course is missing.
	count, err := s.courses.CountDocuments(ctx, bson.M{"_id": courseID})
	if err != nil {
		return errors.Wrapf(err, "look up course %s", courseID)
	}
	if count == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}
