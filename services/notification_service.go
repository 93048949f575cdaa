package services

import (
	"fmt"
	"log"
	"strconv"

	"backend_nae/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NotificationService отправляет администраторам Telegram-уведомление о
// сданном тест-листе. Сервис опционален: без токена уведомления молча
// отключены, ошибка отправки логируется и не блокирует запрос.
type NotificationService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *log.Logger
}

// NewNotificationService создает сервис уведомлений. При пустом токене
// или некорректном chat ID возвращается отключенный сервис.
func NewNotificationService(token, chatID string, logger *log.Logger) *NotificationService {
	if logger == nil {
		logger = log.Default()
	}
	ns := &NotificationService{logger: logger}

	if token == "" || chatID == "" {
		return ns
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		logger.Printf("⚠️  Некорректный TELEGRAM_CHAT_ID %q, уведомления отключены", chatID)
		return ns
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Printf("⚠️  Не удалось подключить Telegram-бота: %v", err)
		return ns
	}

	ns.bot = bot
	ns.chatID = id
	logger.Println("✅ Telegram-уведомления включены")
	return ns
}

// Enabled сообщает, активны ли уведомления.
func (ns *NotificationService) Enabled() bool {
	return ns.bot != nil
}

// NotifySheetSubmitted уведомляет о сданном (не черновом) тест-листе.
func (ns *NotificationService) NotifySheetSubmitted(sheet *models.TestSheet) {
	if !ns.Enabled() || sheet.IsDraft {
		return
	}

	text := fmt.Sprintf("Test sheet %s submitted\nCustomer: %s\nPlant: %s\nForm: %s",
		sheet.TechReference, sheet.Customer, sheet.PlantName, sheet.FormType)

	msg := tgbotapi.NewMessage(ns.chatID, text)
	if _, err := ns.bot.Send(msg); err != nil {
		ns.logger.Printf("⚠️  Не удалось отправить уведомление по листу %s: %v", sheet.TechReference, err)
	}
}
