package session

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/apperror"
	"github.com/gokatarajesh/quiz-live/internal/completion"
	"github.com/gokatarajesh/quiz-live/internal/metrics"
	"github.com/gokatarajesh/quiz-live/internal/quiz"
	"github.com/gokatarajesh/quiz-live/internal/scoring"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

// QuizSource loads quiz definitions and result history.
type QuizSource interface {
	Load(ctx context.Context, quizID uuid.UUID) (quiz.Quiz, error)
	HasCompleted(ctx context.Context, userID, quizID uuid.UUID) (bool, error)
}

// Completer persists the outcome of a finished session exactly once.
type Completer interface {
	Complete(ctx context.Context, in completion.Input) (*completion.Result, error)
}

// RoomTracker links sessions to multiplayer rooms.
type RoomTracker interface {
	PlayingQuiz(roomID string, userID uuid.UUID) (uuid.UUID, error)
	MemberFinished(ctx context.Context, roomID string, userID uuid.UUID)
}

// Options tunes session lifetimes.
type Options struct {
	IdleTimeout        time.Duration // inactivity window for quizzes without a time limit
	IdleGrace          time.Duration // added to the quiz time limit before a session expires
	CompletedRetention time.Duration // how long finished sessions stay for idempotent completion
	MaxAnswerTime      time.Duration // upper bound accepted for a reported time_spent
	Now                func() time.Time
	Shuffle            func(n int, swap func(i, j int))
}

// Service implements the session state machine.
type Service struct {
	store     *Store
	quizzes   QuizSource
	grader    *scoring.Engine
	completer Completer
	rooms     RoomTracker
	metrics   *metrics.Metrics
	opts      Options
	logger    zerolog.Logger
}

// NewService wires the session service. rooms and m may be nil.
func NewService(
	store *Store,
	quizzes QuizSource,
	grader *scoring.Engine,
	completer Completer,
	rooms RoomTracker,
	m *metrics.Metrics,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if opts.IdleGrace < 0 {
		opts.IdleGrace = 0
	}
	if opts.CompletedRetention <= 0 {
		opts.CompletedRetention = 5 * time.Minute
	}
	if opts.MaxAnswerTime <= 0 {
		opts.MaxAnswerTime = 3 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	return &Service{
		store:     store,
		quizzes:   quizzes,
		grader:    grader,
		completer: completer,
		rooms:     rooms,
		metrics:   m,
		opts:      opts,
		logger:    logger.With().Str("component", "session").Logger(),
	}
}

// Preview checks whether the user may start the quiz without creating a session.
func (s *Service) Preview(ctx context.Context, userID, quizID uuid.UUID) (*Preview, error) {
	q, err := s.loadPlayable(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	return &Preview{Summary: q.Summarize(), Eligible: true}, nil
}

// Start opens a session. When RoomID is set the quiz comes from the room and
// the user must be a member of a room that is playing.
func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	if req.RoomID != "" {
		if s.rooms == nil {
			return nil, apperror.NotFound(httperrors.ErrCodeRoomNotFound, "room not found")
		}
		quizID, err := s.rooms.PlayingQuiz(req.RoomID, req.UserID)
		if err != nil {
			return nil, err
		}
		req.QuizID = quizID
	}

	q, err := s.loadPlayable(ctx, req.UserID, req.QuizID)
	if err != nil {
		return nil, err
	}

	questions := make([]quiz.Question, len(q.Questions))
	copy(questions, q.Questions)
	if q.RandomOrder {
		s.opts.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	now := s.opts.Now()
	sess := &Session{
		ID:               uuid.New(),
		UserID:           req.UserID,
		QuizID:           q.ID,
		QuizTitle:        q.Title,
		RoomID:           req.RoomID,
		ConnectionID:     req.ConnectionID,
		Questions:        questions,
		PassingScore:     q.PassingScore,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Answers:          make([]AnswerRecord, 0, len(questions)),
		Status:           StatusActive,
		StartedAt:        now,
		LastActivityAt:   now,
	}
	s.store.Put(sess)
	s.metrics.SessionStarted()

	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("quiz_id", q.ID.String()).
		Int("questions", len(questions)).
		Msg("session started")

	return &StartResponse{
		SessionID:        sess.ID.String(),
		QuizID:           q.ID.String(),
		Title:            q.Title,
		RoomID:           req.RoomID,
		Questions:        quiz.Views(questions),
		TotalQuestions:   len(questions),
		TimeLimitSeconds: q.TimeLimitSeconds,
		StartedAt:        now,
	}, nil
}

func (s *Service) loadPlayable(ctx context.Context, userID, quizID uuid.UUID) (quiz.Quiz, error) {
	q, err := s.quizzes.Load(ctx, quizID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if len(q.Questions) == 0 {
		return quiz.Quiz{}, apperror.Validation(httperrors.ErrCodeQuizNoQuestions, "quiz has no questions")
	}
	if !q.AllowRetake {
		done, err := s.quizzes.HasCompleted(ctx, userID, quizID)
		if err != nil {
			return quiz.Quiz{}, err
		}
		if done {
			return quiz.Quiz{}, apperror.Conflict(httperrors.ErrCodeRetakeForbidden, "quiz does not allow retakes")
		}
	}
	return q, nil
}

// SubmitAnswer grades the answer to the current question. Only the question at
// the cursor is accepted; anything else fails without touching the session.
// Answering the last question completes the session before returning.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitRequest) (*AnswerResponse, error) {
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.UserID != req.UserID {
		return nil, apperror.Unauthorized(httperrors.ErrCodeNotOwner, "session belongs to another user")
	}
	if sess.Status != StatusActive {
		return nil, apperror.Conflict(httperrors.ErrCodeSessionNotActive, "session is "+sess.Status)
	}
	if req.TimeSpentSeconds < 0 || math.IsNaN(req.TimeSpentSeconds) || math.IsInf(req.TimeSpentSeconds, 0) {
		return nil, apperror.Validation(httperrors.ErrCodeValidationFailed, "time_spent must be a non-negative number")
	}
	if req.TimeSpentSeconds > s.opts.MaxAnswerTime.Seconds() {
		return nil, apperror.Validation(httperrors.ErrCodeValidationFailed, "time_spent is out of range")
	}

	current := sess.Questions[sess.CurrentIndex]
	if req.QuestionID != current.ID {
		if sess.CurrentIndex > 0 && sess.Questions[sess.CurrentIndex-1].ID == req.QuestionID {
			return nil, apperror.Conflict(httperrors.ErrCodeAlreadyAnswered, "question already answered")
		}
		return nil, apperror.Conflict(httperrors.ErrCodeQuestionMismatch, "answer does not match the current question")
	}

	outcome := s.grader.Grade(current, req.Answer, req.TimeSpentSeconds)
	now := s.opts.Now()
	sess.Answers = append(sess.Answers, AnswerRecord{
		QuestionID:    current.ID,
		Answer:        req.Answer,
		IsCorrect:     outcome.IsCorrect,
		PointsAwarded: outcome.Points,
		TimeSpentMs:   int64(req.TimeSpentSeconds * 1000),
		AnsweredAt:    now,
	})
	sess.Score += outcome.Points
	sess.CurrentIndex++
	sess.LastActivityAt = now
	s.metrics.AnswerGraded(outcome.IsCorrect)

	resp := &AnswerResponse{
		IsCorrect: outcome.IsCorrect,
		Points:    outcome.Points,
		Score:     sess.Score,
		Answered:  sess.CurrentIndex,
	}

	if sess.CurrentIndex < len(sess.Questions) {
		next := sess.Questions[sess.CurrentIndex].View()
		resp.NextQuestion = &next
		return resp, nil
	}

	s.markCompleted(sess, now)
	result, err := s.finish(ctx, sess)
	if err != nil {
		return nil, err
	}
	resp.Completed = true
	resp.Result = result
	return resp, nil
}

// Complete finishes the session, counting unanswered questions as incorrect.
// Calling it again returns the same result without writing twice.
func (s *Service) Complete(ctx context.Context, sessionID, userID uuid.UUID) (*completion.Result, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.UserID != userID {
		return nil, apperror.Unauthorized(httperrors.ErrCodeNotOwner, "session belongs to another user")
	}
	switch sess.Status {
	case StatusAbandoned:
		return nil, apperror.Conflict(httperrors.ErrCodeSessionNotActive, "session was abandoned")
	case StatusCompleted:
		if sess.Result != nil {
			return sess.Result, nil
		}
	default:
		s.markCompleted(sess, s.opts.Now())
	}
	return s.finish(ctx, sess)
}

// Abandon ends an active session without persisting a result.
func (s *Service) Abandon(ctx context.Context, sessionID, userID uuid.UUID) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.UserID != userID {
		return apperror.Unauthorized(httperrors.ErrCodeNotOwner, "session belongs to another user")
	}
	if sess.Status != StatusActive {
		return apperror.Conflict(httperrors.ErrCodeSessionNotActive, "session is "+sess.Status)
	}
	s.abandonLocked(ctx, sess, metrics.OutcomeAbandoned)
	return nil
}

// AbandonConnection abandons every active session started over the given
// connection. It returns how many sessions were abandoned.
func (s *Service) AbandonConnection(ctx context.Context, connectionID string) int {
	if connectionID == "" {
		return 0
	}
	n := 0
	for _, sess := range s.store.All() {
		if sess.ConnectionID != connectionID {
			continue
		}
		sess.mu.Lock()
		if sess.Status == StatusActive {
			s.abandonLocked(ctx, sess, metrics.OutcomeAbandoned)
			n++
		}
		sess.mu.Unlock()
	}
	if n > 0 {
		s.logger.Info().Str("connection_id", connectionID).Int("sessions", n).Msg("sessions abandoned on disconnect")
	}
	return n
}

// Get returns a snapshot of the session for its owner.
func (s *Service) Get(_ context.Context, sessionID, userID uuid.UUID) (*View, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.UserID != userID {
		return nil, apperror.Unauthorized(httperrors.ErrCodeNotOwner, "session belongs to another user")
	}
	return &View{
		SessionID:      sess.ID.String(),
		QuizID:         sess.QuizID.String(),
		Status:         sess.Status,
		Score:          sess.Score,
		Answered:       sess.CurrentIndex,
		TotalQuestions: len(sess.Questions),
		StartedAt:      sess.StartedAt,
		Result:         sess.Result,
	}, nil
}

// ActiveCount returns the number of sessions held in memory.
func (s *Service) ActiveCount() int {
	return s.store.Len()
}

func (s *Service) lookup(id uuid.UUID) (*Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, apperror.NotFound(httperrors.ErrCodeSessionNotFound, "session not found")
	}
	return sess, nil
}

func (s *Service) markCompleted(sess *Session, now time.Time) {
	sess.Status = StatusCompleted
	sess.CompletedAt = now
	sess.LastActivityAt = now
	s.metrics.SessionEnded(metrics.OutcomeCompleted)
	if sess.RoomID != "" && s.rooms != nil {
		s.rooms.MemberFinished(context.Background(), sess.RoomID, sess.UserID)
	}
}

// finish runs the coordinator for a completed session. The caller holds sess.mu.
func (s *Service) finish(ctx context.Context, sess *Session) (*completion.Result, error) {
	answers := make([]completion.AnswerBreakdown, len(sess.Answers))
	for i, a := range sess.Answers {
		answers[i] = completion.AnswerBreakdown{
			QuestionID:  a.QuestionID.String(),
			Answer:      a.Answer,
			IsCorrect:   a.IsCorrect,
			Points:      a.PointsAwarded,
			TimeSpentMs: a.TimeSpentMs,
		}
	}

	result, err := s.completer.Complete(ctx, completion.Input{
		SessionID:      sess.ID,
		UserID:         sess.UserID,
		QuizID:         sess.QuizID,
		Score:          sess.Score,
		CorrectCount:   sess.correctCount(),
		TotalQuestions: len(sess.Questions),
		PassingScore:   sess.PassingScore,
		Answers:        answers,
		StartedAt:      sess.StartedAt,
		CompletedAt:    sess.CompletedAt,
	})
	if err != nil {
		s.metrics.CompletionFailed()
		s.logger.Error().Err(err).Str("session_id", sess.ID.String()).Msg("session completion failed")
		return nil, err
	}
	sess.Result = result
	return result, nil
}

// abandonLocked moves an active session to abandoned and evicts it. The
// caller holds sess.mu.
func (s *Service) abandonLocked(ctx context.Context, sess *Session, outcome string) {
	sess.Status = StatusAbandoned
	s.store.Delete(sess.ID)
	s.metrics.SessionEnded(outcome)
	if sess.RoomID != "" && s.rooms != nil {
		s.rooms.MemberFinished(ctx, sess.RoomID, sess.UserID)
	}
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("user_id", sess.UserID.String()).
		Str("outcome", outcome).
		Int("answered", sess.CurrentIndex).
		Msg("session abandoned")
}
