package explorer

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "chess_explorer/internal/domain/explorer"
)

const controllerTimeout = 5 * time.Second

// SessionController applies panel actions to one stored session. The panel
// actions carry no context, so each one gets its own timeout.
type SessionController struct {
	service *Service
	id      string
	log     *zap.SugaredLogger
	// onChange runs after every successful action.
	onChange func()
}

func NewSessionController(service *Service, id string, log *zap.SugaredLogger, onChange func()) *SessionController {
	return &SessionController{service: service, id: id, log: log, onChange: onChange}
}

func (c *SessionController) do(action string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), controllerTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		c.log.Errorf("explorer session %s: %s failed: %v", c.id, action, err)
		return
	}
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *SessionController) SetHoveringUCI(uci string) {
	c.do("hover", func(ctx context.Context) error {
		return c.service.SetHoveringUCI(ctx, c.id, uci)
	})
}

func (c *SessionController) ExplorerMove(uci string) {
	c.do("move "+uci, func(ctx context.Context) error {
		return c.service.ExplorerMove(ctx, c.id, uci)
	})
}

func (c *SessionController) Toggle() {
	c.do("toggle", func(ctx context.Context) error {
		return c.service.Toggle(ctx, c.id)
	})
}

func (c *SessionController) ToggleConfig() {
	c.do("toggle config", func(ctx context.Context) error {
		return c.service.ToggleConfig(ctx, c.id)
	})
}

func (c *SessionController) SelectDB(db domain.Source) {
	c.do("select db", func(ctx context.Context) error {
		return c.service.SelectDB(ctx, c.id, db)
	})
}

func (c *SessionController) ToggleRating(rating int) {
	c.do("toggle rating", func(ctx context.Context) error {
		return c.service.ToggleRating(ctx, c.id, rating)
	})
}

func (c *SessionController) ToggleSpeed(speed string) {
	c.do("toggle speed", func(ctx context.Context) error {
		return c.service.ToggleSpeed(ctx, c.id, speed)
	})
}
