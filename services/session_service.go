package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend_nae/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Ошибки проверки сессии. Истёкшая сессия отличается от отсутствующей,
// но обе недействительны для аутентификации.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionService управляет строками сессий: создание при входе, проверка
// на каждом запросе, периодическая очистка истёкших строк по cron.
type SessionService struct {
	db     *gorm.DB
	ttl    time.Duration
	cron   *cron.Cron
	logger *log.Logger
}

// NewSessionService создает новый экземпляр SessionService
func NewSessionService(db *gorm.DB, ttl time.Duration, logger *log.Logger) *SessionService {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionService{
		db:     db,
		ttl:    ttl,
		cron:   cron.New(),
		logger: logger,
	}
}

// sessionPayload хранит сериализованное содержимое строки сессии.
type sessionPayload struct {
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
}

// Create создает сессию для пользователя и возвращает её строку.
func (ss *SessionService) Create(userID string) (*models.Session, error) {
	now := time.Now()
	payload, err := json.Marshal(sessionPayload{UserID: userID, CreatedAt: now.Unix()})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session payload: %w", err)
	}

	session := &models.Session{
		SID:    uuid.NewString(),
		Sess:   string(payload),
		Expire: now.Add(ss.ttl).Unix(),
	}
	if err := ss.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Validate возвращает сессию по идентификатору. Истёкшие сессии
// недействительны сразу, независимо от того, очищены они или нет.
func (ss *SessionService) Validate(sid string) (*models.Session, error) {
	var session models.Session
	if err := ss.db.First(&session, "sid = ?", sid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// UserID извлекает идентификатор пользователя из содержимого сессии.
func (ss *SessionService) UserID(session *models.Session) (string, error) {
	var payload sessionPayload
	if err := json.Unmarshal([]byte(session.Sess), &payload); err != nil {
		return "", fmt.Errorf("failed to parse session payload: %w", err)
	}
	if payload.UserID == "" {
		return "", fmt.Errorf("session payload has no user id")
	}
	return payload.UserID, nil
}

// Destroy удаляет сессию (выход пользователя).
func (ss *SessionService) Destroy(sid string) error {
	return ss.db.Delete(&models.Session{}, "sid = ?", sid).Error
}

// PruneExpired физически удаляет истёкшие строки сессий.
func (ss *SessionService) PruneExpired() (int64, error) {
	result := ss.db.Where("expire <= ?", time.Now().Unix()).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// StartPruneScheduler запускает ежечасную очистку истёкших сессий.
func (ss *SessionService) StartPruneScheduler() error {
	_, err := ss.cron.AddFunc("@hourly", func() {
		pruned, err := ss.PruneExpired()
		if err != nil {
			ss.logger.Printf("❌ Ошибка очистки сессий: %v", err)
			return
		}
		if pruned > 0 {
			ss.logger.Printf("🧹 Удалено истёкших сессий: %d", pruned)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session pruning: %w", err)
	}
	ss.cron.Start()
	ss.logger.Println("✅ Планировщик очистки сессий запущен")
	return nil
}

// Stop останавливает планировщик очистки.
func (ss *SessionService) Stop() {
	ss.cron.Stop()
}
