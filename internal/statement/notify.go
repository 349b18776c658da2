package statement

import "sync"

// NoticeLevel grades a user-facing notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a one-shot user-facing message not tied to a single tracker
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Notifier receives user-facing notices from the queue controller
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// MemoryNotifier buffers notices until a consumer drains them. The HTTP
// surface drains it once per poll, which gives each notice one-shot
// delivery.
type MemoryNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

// NewMemoryNotifier creates an empty MemoryNotifier
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Notify buffers one notice
func (n *MemoryNotifier) Notify(level NoticeLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Level: level, Message: message})
}

// Drain returns all buffered notices and empties the buffer
func (n *MemoryNotifier) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	notices := n.notices
	n.notices = nil
	if notices == nil {
		notices = []Notice{}
	}
	return notices
}
