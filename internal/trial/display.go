// internal/trial/display.go
package trial

import (
	"sync"

	"go.uber.org/zap"
)

// Label is a headless text element. Every change is logged at debug level.
type Label struct {
	mu     sync.Mutex
	name   string
	text   string
	logger *zap.Logger
}

func newLabel(name string, logger *zap.Logger) *Label {
	return &Label{name: name, logger: logger}
}

func (l *Label) SetText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.text == text {
		return
	}
	l.text = text
	l.logger.Debug("Text changed.", zap.String("label", l.name), zap.String("text", text))
}

// Text returns the current text.
func (l *Label) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Panel is a headless panel.
type Panel struct {
	mu      sync.Mutex
	name    string
	visible bool
	logger  *zap.Logger
}

func newPanel(name string, logger *zap.Logger) *Panel {
	return &Panel{name: name, logger: logger}
}

func (p *Panel) SetVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible == visible {
		return
	}
	p.visible = visible
	p.logger.Debug("Panel toggled.", zap.String("panel", p.name), zap.Bool("visible", visible))
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}
