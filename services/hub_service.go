package services

import (
	"log"
	"os"
	"sync"
	"time"

	"labstock-backend/models"

	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
)

// WSMessage представляет сообщение WebSocket
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client представляет подключенного клиента
type Client struct {
	UserID   uint
	Role     string
	Conn     *websocket.Conn
	Send     chan WSMessage
	LastPing time.Time
}

// Hub управляет всеми подключениями и рассылает уведомления
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.Notification
	mutex      sync.RWMutex
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.Notification, 64),
	}
}

// Run запускает хаб
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()

			log.Printf("Client %d connected. Total clients: %d", client.UserID, len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()

			log.Printf("Client %d disconnected. Total clients: %d", client.UserID, len(h.clients))

		case notification := <-h.broadcast:
			h.deliver(notification)
		}
	}
}

// Push передает уведомление в хаб, не блокируя отправителя
func (h *Hub) Push(notification models.Notification) {
	select {
	case h.broadcast <- notification:
	default:
		log.Printf("Хаб перегружен, уведомление %d пропущено", notification.ID)
	}
}

// deliver доставляет уведомление адресатам: персональные уведомления уходят
// пользователю, уведомления без адресата получают администраторы
func (h *Hub) deliver(notification models.Notification) {
	message := WSMessage{
		Type:    "notification." + notification.Kind,
		Payload: notification,
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		target := false
		if notification.UserID == nil {
			target = client.Role == "admin" || client.Role == "staff"
		} else {
			target = client.UserID == *notification.UserID
		}
		if !target {
			continue
		}

		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// HandleWebSocket обрабатывает WebSocket соединение
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	// Получаем JWT токен из query параметров
	tokenString := c.Query("token")
	if tokenString == "" {
		c.Close()
		return
	}

	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		secretKey = "labstock-secret-key-change-in-production"
	}

	// Парсим JWT токен
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid {
		c.Close()
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.Close()
		return
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		c.Close()
		return
	}
	role, _ := claims["role"].(string)

	client := &Client{
		UserID:   uint(userIDFloat),
		Role:     role,
		Conn:     c,
		Send:     make(chan WSMessage, 16),
		LastPing: time.Now(),
	}

	h.register <- client

	// Писатель: качает сообщения из канала в соединение
	go func() {
		for message := range client.Send {
			if err := c.WriteJSON(message); err != nil {
				break
			}
		}
	}()

	// Читатель держит соединение и ловит разрыв
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
		client.LastPing = time.Now()
	}

	h.unregister <- client
	c.Close()
}
