// Package modal tracks overlay dialogs: which are visible, whether page scroll
// is locked and which control has focus.
package modal

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownModal is returned when an id was never registered.
var ErrUnknownModal = errors.New("unknown modal")

// EscapeKey is the key name that closes every modal.
const EscapeKey = "Escape"

// Modal is a registered dialog.
type Modal struct {
	ID      string
	Title   string
	Content string
	// Controls lists the focusable controls in document order.
	Controls []string
}

// Backdrop returns the click target identifying the modal's overlay.
func (m *Modal) Backdrop() Target { return Target{Modal: m.ID, Backdrop: true} }

// Target identifies where a pointer click landed.
type Target struct {
	Modal    string
	Backdrop bool
}

// Surface renders modal state changes.
type Surface interface {
	ShowModal(m Modal)
	HideModal(m Modal)
}

// Controller owns the registered modals. Opening a modal while another is
// visible stacks it on top; focus follows the topmost modal and page scroll
// stays locked until none is visible.
type Controller struct {
	mu      sync.Mutex
	modals  map[string]*Modal
	stack   []string
	focus   string
	surface Surface
}

// NewController returns a controller rendering to s. s may be nil.
func NewController(s Surface) *Controller {
	return &Controller{modals: make(map[string]*Modal), surface: s}
}

// SetSurface replaces the rendering surface.
func (c *Controller) SetSurface(s Surface) {
	c.mu.Lock()
	c.surface = s
	c.mu.Unlock()
}

// Register adds or replaces a modal definition and returns its handle.
func (c *Controller) Register(id, title, content string, controls ...string) *Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modals[id]
	if !ok {
		m = &Modal{ID: id}
		c.modals[id] = m
	}
	m.Title = title
	m.Content = content
	m.Controls = append([]string(nil), controls...)
	return m
}

// Get returns a copy of the modal registered as id.
func (c *Controller) Get(id string) (Modal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modals[id]
	if !ok {
		return Modal{}, false
	}
	return *m, true
}

// IsOpen reports whether id is visible.
func (c *Controller) IsOpen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inStack(id)
}

// Open shows the modal, locks scroll and focuses its first control.
func (c *Controller) Open(id string) error {
	c.mu.Lock()
	m, ok := c.modals[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("open %s: %w", id, ErrUnknownModal)
	}
	c.removeFromStack(id)
	c.stack = append(c.stack, id)
	c.focus = firstControl(m)
	snapshot := *m
	s := c.surface
	c.mu.Unlock()
	if s != nil {
		s.ShowModal(snapshot)
	}
	return nil
}

// Close hides a modal given either a *Modal handle or its id.
func (c *Controller) Close(ref any) error {
	var id string
	switch v := ref.(type) {
	case string:
		id = v
	case *Modal:
		if v == nil {
			return nil
		}
		id = v.ID
	default:
		return fmt.Errorf("close: unsupported reference %T", ref)
	}
	c.mu.Lock()
	m, ok := c.modals[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("close %s: %w", id, ErrUnknownModal)
	}
	wasVisible := c.inStack(id)
	c.removeFromStack(id)
	c.refocus()
	snapshot := *m
	s := c.surface
	c.mu.Unlock()
	if s != nil && wasVisible {
		s.HideModal(snapshot)
	}
	return nil
}

// CloseAll hides every modal and releases scroll.
func (c *Controller) CloseAll() {
	c.mu.Lock()
	var hidden []Modal
	for _, id := range c.stack {
		hidden = append(hidden, *c.modals[id])
	}
	c.stack = nil
	c.focus = ""
	s := c.surface
	c.mu.Unlock()
	if s == nil {
		return
	}
	for _, m := range hidden {
		s.HideModal(m)
	}
}

// HandleKey processes a global key press.
func (c *Controller) HandleKey(key string) {
	if key == EscapeKey {
		c.CloseAll()
	}
}

// HandleClick processes a global pointer click. Only clicks landing on a
// visible modal's backdrop close it.
func (c *Controller) HandleClick(t Target) {
	if !t.Backdrop || t.Modal == "" {
		return
	}
	c.mu.Lock()
	visible := c.inStack(t.Modal)
	c.mu.Unlock()
	if visible {
		_ = c.Close(t.Modal)
	}
}

// ScrollLocked reports whether page scroll is disabled.
func (c *Controller) ScrollLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack) > 0
}

// Focused returns the control holding focus, empty when none.
func (c *Controller) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// Visible returns the ids of visible modals, bottom to top.
func (c *Controller) Visible() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.stack...)
}

func (c *Controller) inStack(id string) bool {
	for _, s := range c.stack {
		if s == id {
			return true
		}
	}
	return false
}

func (c *Controller) removeFromStack(id string) {
	for i, s := range c.stack {
		if s == id {
			c.stack = append(c.stack[:i], c.stack[i+1:]...)
			return
		}
	}
}

func (c *Controller) refocus() {
	c.focus = ""
	if n := len(c.stack); n > 0 {
		c.focus = firstControl(c.modals[c.stack[n-1]])
	}
}

func firstControl(m *Modal) string {
	if len(m.Controls) == 0 {
		return ""
	}
	return m.Controls[0]
}
