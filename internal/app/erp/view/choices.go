package view

import (
	"context"
	"fmt"
	"strings"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/viewkit"
)

// BoundPort привязывает контекст запроса к порту записей,
// сводя его к контракту табличного кита
type BoundPort struct {
	ctx  context.Context
	port repository.RecordPort
}

func BindPort(ctx context.Context, port repository.RecordPort) *BoundPort {
	return &BoundPort{ctx: ctx, port: port}
}

func (b *BoundPort) List(q viewkit.Query) ([]entity.Record, int, error) {
	return b.port.List(b.ctx, q)
}

func (b *BoundPort) Capabilities() viewkit.Capabilities {
	return b.port.Capabilities()
}

// ChoiceLoader загружает варианты справочников для форм
// Имена портов: customers, products, suppliers, cities:<страна>
type ChoiceLoader struct {
	ctx   context.Context
	ports map[string]repository.RecordPort
}

func NewChoiceLoader(ctx context.Context, ports map[string]repository.RecordPort) *ChoiceLoader {
	return &ChoiceLoader{ctx: ctx, ports: ports}
}

// Choices возвращает варианты справочника по имени порта
func (l *ChoiceLoader) Choices(name string) ([]viewkit.Choice, error) {
	if country, ok := strings.CutPrefix(name, "cities:"); ok {
		cities := CitiesFor(country)
		choices := make([]viewkit.Choice, 0, len(cities))
		for _, c := range cities {
			choices = append(choices, viewkit.Choice{Value: c, Label: c})
		}
		return choices, nil
	}

	port, ok := l.ports[name]
	if !ok {
		return nil, fmt.Errorf("unknown reference port: %s", name)
	}

	rows, _, err := port.List(l.ctx, viewkit.Query{Page: 1, PageSize: viewkit.MaxPageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s choices: %w", name, err)
	}

	choices := make([]viewkit.Choice, 0, len(rows))
	for _, row := range rows {
		choices = append(choices, rowChoice(name, row))
	}
	return choices, nil
}

// rowChoice выбирает значение и подпись варианта по типу справочника
func rowChoice(name string, row entity.Record) viewkit.Choice {
	label, _ := row["name"].(string)

	switch name {
	case "products":
		code, _ := row["product_code"].(string)
		if label != "" {
			return viewkit.Choice{Value: code, Label: fmt.Sprintf("%s (%s)", label, code)}
		}
		return viewkit.Choice{Value: code, Label: code}
	case "suppliers":
		id := fmt.Sprintf("%v", row["id"])
		return viewkit.Choice{Value: id, Label: label}
	default:
		return viewkit.Choice{Value: label, Label: label}
	}
}
