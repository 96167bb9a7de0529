package services

import (
	"log"

	"labstock-backend/models"

	"gorm.io/gorm"
)

// Notifier интерфейс диспетчера уведомлений.
// userID == nil означает уведомление для администраторов
type Notifier interface {
	Notify(kind, message string, userID *uint)
}

// EmailSender отправляет email; транспорт подключается снаружи
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// SMSSender отправляет SMS; транспорт подключается снаружи
type SMSSender interface {
	SendSMS(to, message string) error
}

// LogEmailSender заглушка транспорта: пишет письмо в лог
type LogEmailSender struct{}

func (LogEmailSender) SendEmail(to, subject, body string) error {
	log.Printf("[EMAIL] to=%s subject=%q body=%q", to, subject, body)
	return nil
}

// LogSMSSender заглушка транспорта: пишет SMS в лог
type LogSMSSender struct{}

func (LogSMSSender) SendSMS(to, message string) error {
	log.Printf("[SMS] to=%s message=%q", to, message)
	return nil
}

// NotificationService сохраняет уведомления и рассылает их best-effort:
// запись в БД, пуш в websocket-хаб, email/SMS через подключенные транспорты.
// Сбой доставки никогда не влияет на уже зафиксированное состояние
type NotificationService struct {
	DB    *gorm.DB
	Hub   *Hub
	Email EmailSender
	SMS   SMSSender
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(db *gorm.DB, hub *Hub) *NotificationService {
	return &NotificationService{
		DB:    db,
		Hub:   hub,
		Email: LogEmailSender{},
		SMS:   LogSMSSender{},
	}
}

// Notify сохраняет уведомление и пушит его в хаб
func (ns *NotificationService) Notify(kind, message string, userID *uint) {
	notification := models.Notification{
		Kind:    kind,
		Message: message,
		UserID:  userID,
	}
	if err := ns.DB.Create(&notification).Error; err != nil {
		log.Printf("Ошибка при сохранении уведомления: %v", err)
		return
	}

	if ns.Hub != nil {
		ns.Hub.Push(notification)
	}
}

// EmailUser отправляет письмо пользователю по его ID, ошибки только логируются
func (ns *NotificationService) EmailUser(userID uint, subject, body string) {
	var user models.User
	if err := ns.DB.First(&user, userID).Error; err != nil {
		log.Printf("Ошибка при отправке email: пользователь %d не найден", userID)
		return
	}
	if err := ns.Email.SendEmail(user.Email, subject, body); err != nil {
		log.Printf("Ошибка при отправке email пользователю %d: %v", userID, err)
	}
}

// SMSUser отправляет SMS пользователю по его ID, ошибки только логируются
func (ns *NotificationService) SMSUser(userID uint, message string) {
	var user models.User
	if err := ns.DB.First(&user, userID).Error; err != nil {
		log.Printf("Ошибка при отправке SMS: пользователь %d не найден", userID)
		return
	}
	if user.ContactNumber == "" {
		return
	}
	if err := ns.SMS.SendSMS(user.ContactNumber, message); err != nil {
		log.Printf("Ошибка при отправке SMS пользователю %d: %v", userID, err)
	}
}
