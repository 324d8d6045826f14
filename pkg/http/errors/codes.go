package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeNotOwner               = "not_owner"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidTimeframe = "invalid_timeframe"
	ErrCodeInvalidQuizID    = "invalid_quiz_id"

	// Quiz/session errors
	ErrCodeQuizNotFound     = "quiz_not_found"
	ErrCodeQuizNoQuestions  = "quiz_has_no_questions"
	ErrCodeRetakeForbidden  = "retake_forbidden"
	ErrCodeSessionNotFound  = "session_not_found"
	ErrCodeSessionNotActive = "session_not_active"
	ErrCodeQuestionMismatch = "question_mismatch"
	ErrCodeAlreadyAnswered  = "already_answered"
	ErrCodeInvalidSessionID = "invalid_session_id"
	ErrCodeCompletionFailed = "completion_failed"

	// Room errors
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeRoomFull         = "room_full"
	ErrCodeRoomInProgress   = "room_in_progress"
	ErrCodeAlreadyInRoom    = "already_in_room"
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodePlayersNotReady  = "players_not_ready"
	ErrCodeInvalidMaxPlayer = "invalid_max_players"
	ErrCodeRoomNotPlaying   = "room_not_playing"

	// Challenge / presence errors
	ErrCodeUserOffline       = "user_offline"
	ErrCodeChallengeNotFound = "challenge_not_found"
	ErrCodeChallengeExpired  = "challenge_expired"
	ErrCodeSelfChallenge     = "self_challenge"
	ErrCodeInvalidStatus     = "invalid_status"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)
