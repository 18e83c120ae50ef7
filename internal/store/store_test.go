package store

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kickpool/kickpool-go/internal/domain/notification"
	"github.com/kickpool/kickpool-go/internal/domain/user"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
)

func TestStore_DispatchNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	st := New(logging.NewNop())

	var got []State
	unsubscribe := st.Subscribe(func(s State) {
		got = append(got, s)
	})

	st.Dispatch(SetAuthUser{User: &user.Summary{ID: "u1"}})
	if len(got) != 1 || !got[0].Auth.IsAuthenticated() {
		t.Fatalf("subscriber should see the post-transition state, got %d calls", len(got))
	}

	unsubscribe()
	st.Dispatch(ClearAuth{})
	if len(got) != 1 {
		t.Fatal("unsubscribed listener must not be called")
	}

	if st.State().Auth.IsAuthenticated() {
		t.Fatal("dispatch after unsubscribe must still apply")
	}
}

func TestStore_ConcurrentDispatchesStayConsistent(t *testing.T) {
	t.Parallel()

	st := New(logging.NewNop())

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(PushNotification{Item: notification.Notification{ID: newTestID()}})
		}()
	}
	wg.Wait()

	if got := len(st.State().Notifications.Items); got != n {
		t.Fatalf("expected %d notifications, got %d", n, got)
	}
}

var testIDCounter atomic.Int64

func newTestID() string {
	return "n" + strconv.FormatInt(testIDCounter.Add(1), 10)
}
