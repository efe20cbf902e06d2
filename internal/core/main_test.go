package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cloudbox/internal/storage"
)

// recordingNotifier captures the activation codes instead of mailing
// them, so tests can complete the registration flow.
type recordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	fail  bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: make(map[string]string)}
}

func (n *recordingNotifier) Notify(recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errFailedDelivery
	}
	n.codes[recipient] = body
	return nil
}

func (n *recordingNotifier) codeFor(recipient string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[recipient]
}

var errFailedDelivery = &deliveryError{}

type deliveryError struct{}

func (*deliveryError) Error() string { return "smtp relay unreachable" }

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()

	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	notifier := newRecordingNotifier()
	svc, err := New(ls, notifier, nil, 24*time.Hour)
	require.NoError(t, err)
	return svc, notifier
}

// activateTestUser runs the full registration flow for name and leaves an
// active account behind.
func activateTestUser(t *testing.T, svc *Service, notifier *recordingNotifier, name string) {
	t.Helper()
	require.NoError(t, svc.Register(name, "password"))
	require.NoError(t, svc.Activate(name, notifier.codeFor(name)))
}
