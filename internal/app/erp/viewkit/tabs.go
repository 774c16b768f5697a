package viewkit

// Panel - функция отрисовки содержимого вкладки
// Возвращает данные панели; ошибка превращается в уведомление на границе
type Panel func(sess *Store, notifier Notifier) (interface{}, error)

// Tab - одна вкладка страницы
// Пустой список Roles означает что вкладка доступна всем ролям
type Tab struct {
	Label string
	Icon  string
	Roles []string
	Panel Panel `json:"-"`
}

// Page - именованная страница из упорядоченных вкладок
// Композиция без состояния: вся логика - выбор активной вкладки
// и скрытие вкладок недоступных роли
type Page struct {
	ID    string
	Title string
	Tabs  []Tab
}

// VisibleTabs возвращает вкладки доступные роли, сохраняя порядок
func (p Page) VisibleTabs(role string) []Tab {
	visible := make([]Tab, 0, len(p.Tabs))
	for _, t := range p.Tabs {
		if t.allowed(role) {
			visible = append(visible, t)
		}
	}
	return visible
}

func (t Tab) allowed(role string) bool {
	if len(t.Roles) == 0 {
		return true
	}
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}
