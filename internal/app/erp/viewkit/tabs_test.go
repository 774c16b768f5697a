package viewkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleTabsFiltersByRole(t *testing.T) {
	page := Page{
		ID:    "finance",
		Title: "Финансы",
		Tabs: []Tab{
			{Label: "Движение денег", Roles: []string{"admin", "accounting"}},
			{Label: "Курсы валют"},
			{Label: "Анализ отклонений", Roles: []string{"admin"}},
		},
	}

	admin := page.VisibleTabs("admin")
	assert.Len(t, admin, 3)

	accounting := page.VisibleTabs("accounting")
	assert.Len(t, accounting, 2)

	// Вкладка без ролей видна любой роли
	sales := page.VisibleTabs("sales")
	assert.Len(t, sales, 1)
	assert.Equal(t, "Курсы валют", sales[0].Label)
}

func TestVisibleTabsPreservesOrder(t *testing.T) {
	page := Page{
		Tabs: []Tab{
			{Label: "A"},
			{Label: "B", Roles: []string{"admin"}},
			{Label: "C"},
		},
	}

	tabs := page.VisibleTabs("staff")
	assert.Equal(t, "A", tabs[0].Label)
	assert.Equal(t, "C", tabs[1].Label)
}
