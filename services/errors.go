package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid name, email or password")
	ErrInvalidFileType    = errors.New("file must be an image")
	ErrFileTooLarge       = errors.New("file is too large")
	ErrStorageDisabled    = errors.New("object storage is not configured")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current player")

	// Игроки
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerNameConflict  = errors.New("player name is already in use")
	ErrPlayerEmailConflict = errors.New("email address is already in use")
	ErrPlayerHasGames      = errors.New("player has recorded games")

	// Правила
	ErrRuleNotFound     = errors.New("rule not found")
	ErrRuleInUse        = errors.New("rule is used by an ended game; clone it to make changes")
	ErrRuleInactive     = errors.New("rule is not active")
	ErrRuleSlugConflict = errors.New("rule with this slug and version already exists")

	// Игры и результаты
	ErrGameNotFound        = errors.New("game not found")
	ErrGameEnded           = errors.New("game has already ended")
	ErrGameNotReady        = errors.New("game is not ready to be settled")
	ErrGameNotSettled      = errors.New("game is not settled")
	ErrEntryNotFound       = errors.New("game entry not found")
	ErrPlayerAlreadyInGame = errors.New("player already takes part in the game")
	ErrVersionConflict     = errors.New("entry was modified by someone else; reload and retry")
	ErrPositionTaken       = errors.New("finish position is already taken")
	ErrPositionOutOfRange  = errors.New("finish position is out of range")
	ErrNoFreePosition      = errors.New("all finish positions are assigned")
	ErrEntryNotEliminated  = errors.New("entry has no finish position")
)
