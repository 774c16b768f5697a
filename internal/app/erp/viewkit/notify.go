package viewkit

import "sync"

// Level - канал уведомления
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification - короткое сообщение пользователю
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier - единый контракт сигнализации об исходе операции
// Каждый путь отказа завершается вызовом Notifier и локальным возвратом,
// исключения через границу панели не пробрасываются
type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
	Info(message string)
}

// Collector накапливает уведомления в рамках одного запроса
// Собранный список отдается в конверте ответа
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Success(message string) { c.add(LevelSuccess, message) }
func (c *Collector) Warning(message string) { c.add(LevelWarning, message) }
func (c *Collector) Error(message string)   { c.add(LevelError, message) }
func (c *Collector) Info(message string)    { c.add(LevelInfo, message) }

func (c *Collector) add(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Notification{Level: level, Message: message})
}

// Drain возвращает накопленные уведомления и очищает коллектор
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.items
	c.items = nil
	return items
}
