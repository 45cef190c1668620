package app

import "sync"

// NoticeKind classifies a message a controller pushes to its observers.
type NoticeKind string

const (
	// NoticeBreak is raised once every full break interval of study time.
	NoticeBreak NoticeKind = "break"
	// NoticeSaveFailed reports a store failure; Message is safe to show.
	NoticeSaveFailed NoticeKind = "save-failed"
	// NoticeInvalidProgress carries every validation message of a rejected snapshot.
	NoticeInvalidProgress NoticeKind = "invalid-progress"
)

// Notice is pushed to subscribers outside the request/response flow.
type Notice struct {
	Kind    NoticeKind
	Message string
	Details []string
}

type notifier struct {
	mu          sync.Mutex
	subscribers map[chan Notice]struct{}
}

func newNotifier() *notifier {
	return &notifier{subscribers: make(map[chan Notice]struct{})}
}

// subscribe returns a channel of notices. The caller must invoke cancel.
func (n *notifier) subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, 8)

	n.mu.Lock()
	n.subscribers[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if _, ok := n.subscribers[ch]; ok {
			delete(n.subscribers, ch)
			close(ch)
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

func (n *notifier) publish(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subscribers {
		select {
		case ch <- notice:
		default:
			// slow subscriber: drop its oldest notice
			select {
			case <-ch:
			default:
			}
			ch <- notice
		}
	}
}

func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subscribers {
		delete(n.subscribers, ch)
		close(ch)
	}
}
