package viewkit

import (
	"strings"
	"sync"
)

// Store - изменяемое состояние представлений одной пользовательской сессии
// Ключи имеют вид view:scope:name; значения - только простые данные,
// никаких ссылок на виджеты или порты
type Store struct {
	mu          sync.RWMutex
	values      map[string]interface{}
	currentView string
}

func NewStore() *Store {
	return &Store{values: make(map[string]interface{})}
}

// Key собирает полный ключ из идентификатора представления, scope и имени
func Key(viewID, scope, name string) string {
	return viewID + ":" + scope + ":" + name
}

// Get возвращает значение по ключу или значение по умолчанию
func (s *Store) Get(key string, def interface{}) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Set записывает значение по ключу
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// ClearPrefix удаляет все ключи начинающиеся с префикса
func (s *Store) ClearPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			delete(s.values, k)
		}
	}
}

// EnterView фиксирует переход в представление и очищает состояние
// всех остальных представлений. Подтверждение удаления не переживает
// навигацию
func (s *Store) EnterView(viewID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentView == viewID {
		return
	}
	s.currentView = viewID

	for k := range s.values {
		if !strings.HasPrefix(k, viewID+":") {
			delete(s.values, k)
		}
	}
}

// CurrentView возвращает идентификатор активного представления
func (s *Store) CurrentView() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentView
}

// Scoped возвращает аксессор с неймспейсом представления
func (s *Store) Scoped(viewID string) *Scoped {
	return &Scoped{store: s, viewID: viewID}
}

// Scoped - аксессор к состоянию одного представления
type Scoped struct {
	store  *Store
	viewID string
}

func (sc *Scoped) Get(scope, name string, def interface{}) interface{} {
	return sc.store.Get(Key(sc.viewID, scope, name), def)
}

func (sc *Scoped) Set(scope, name string, value interface{}) {
	sc.store.Set(Key(sc.viewID, scope, name), value)
}

// Clear удаляет все ключи scope внутри представления
func (sc *Scoped) Clear(scope string) {
	sc.store.ClearPrefix(sc.viewID + ":" + scope + ":")
}

const confirmDeletePrefix = "confirm_delete_"

// ConfirmDelete реализует двухшаговое удаление строки
// Первый вызов взводит флаг confirm_delete_<id> (и сбрасывает флаги других
// строк) и возвращает false; повторный вызов для той же строки снимает флаг
// и возвращает true - можно удалять
func (sc *Scoped) ConfirmDelete(scope, id string) bool {
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()

	key := Key(sc.viewID, scope, confirmDeletePrefix+id)
	if v, ok := sc.store.values[key]; ok && v == true {
		delete(sc.store.values, key)
		return true
	}

	// Действие по другой строке сбрасывает ранее взведенные подтверждения
	prefix := sc.viewID + ":" + scope + ":" + confirmDeletePrefix
	for k := range sc.store.values {
		if strings.HasPrefix(k, prefix) {
			delete(sc.store.values, k)
		}
	}

	sc.store.values[key] = true
	return false
}

// PendingConfirm сообщает взведен ли флаг подтверждения для строки
func (sc *Scoped) PendingConfirm(scope, id string) bool {
	return sc.Get(scope, confirmDeletePrefix+id, false) == true
}

// SessionStore хранит Store каждой пользовательской сессии
// Репозитории общие на процесс, состояние представлений - на сессию
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Store
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Store)}
}

// ForSession возвращает Store сессии, создавая его при первом обращении
func (ss *SessionStore) ForSession(sessionID string) *Store {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	st, ok := ss.sessions[sessionID]
	if !ok {
		st = NewStore()
		ss.sessions[sessionID] = st
	}
	return st
}

// Drop удаляет состояние сессии
func (ss *SessionStore) Drop(sessionID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, sessionID)
}
