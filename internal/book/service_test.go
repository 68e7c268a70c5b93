package book

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"bookshelf/internal/book/mocks"
	"bookshelf/internal/event"
	"bookshelf/internal/store"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every event published on a real bus.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) handle(ctx context.Context, e event.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func newTestService(t *testing.T, books ...Book) (*Service, *store.MemoryStore, *recorder) {
	t.Helper()
	st := store.NewMemoryStore(books...)
	bus := event.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := &recorder{}
	bus.Subscribe(event.BookAdded, rec.handle)
	bus.Subscribe(event.BookUpdated, rec.handle)
	bus.Subscribe(event.BookDeleted, rec.handle)
	return NewService(st, bus), st, rec
}

func TestService_CreateThenGet(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
	assert.Equal(t, Book{ID: 1, Title: "Dune", Author: "Herbert"}, created)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	require.Len(t, rec.events, 1)
	assert.Equal(t, event.BookAdded, rec.events[0].Kind)
	assert.Equal(t, created, *rec.events[0].Book)
}

func TestService_IDsAreSequential(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		b, err := svc.Create(ctx, Input{Title: fmt.Sprintf("Book %d", want), Author: "A"})
		require.NoError(t, err)
		assert.Equal(t, want, b.ID)
	}

	books, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 5)
	for i, b := range books {
		assert.Equal(t, i+1, b.ID, "insertion order is kept")
	}
}

func TestService_IDsFollowHighestExisting(t *testing.T) {
	svc, _, _ := newTestService(t, Book{ID: 7, Title: "a", Author: "b"}, Book{ID: 3, Title: "c", Author: "d"})

	b, err := svc.Create(context.Background(), Input{Title: "e", Author: "f"})
	require.NoError(t, err)
	assert.Equal(t, 8, b.ID)
}

func TestService_IDsNotReusedAfterDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, Input{Title: "t", Author: "a"})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Delete(ctx, 2))

	b, err := svc.Create(ctx, Input{Title: "t", Author: "a"})
	require.NoError(t, err)
	assert.Equal(t, 4, b.ID)
}

func TestService_IDResetsAfterClear(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, Input{Title: "t", Author: "a"})
		require.NoError(t, err)
	}
	for id := 1; id <= 3; id++ {
		require.NoError(t, svc.Delete(ctx, id))
	}

	b, err := svc.Create(ctx, Input{Title: "again", Author: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, b.ID)
}

func TestService_NotFound(t *testing.T) {
	svc, st, rec := newTestService(t, Book{ID: 1, Title: "Dune", Author: "Herbert"})
	ctx := context.Background()

	for _, id := range []int{0, -1, 2, 999} {
		t.Run(fmt.Sprint(id), func(t *testing.T) {
			_, err := svc.Get(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = svc.Update(ctx, id, Input{Title: "x", Author: "y"})
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, svc.Delete(ctx, id), ErrNotFound)
		})
	}

	books, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Book{{ID: 1, Title: "Dune", Author: "Herbert"}}, books)
	assert.Empty(t, rec.events)
}

func TestService_ValidationLeavesStoreUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := mocks.NewMockStore(ctrl)
	mockEvents := mocks.NewMockPublisher(ctrl)
	svc := NewService(mockStore, mockEvents)
	ctx := context.Background()

	inputs := []Input{
		{},
		{Title: "Dune"},
		{Author: "Herbert"},
		{Title: "", Author: ""},
	}

	for _, in := range inputs {
		_, err := svc.Create(ctx, in)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.Update(ctx, 1, in)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestService_ValidationErrorNamesFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), Input{Title: "Dune"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "author", verr.Fields[0].Field)
}

func TestService_UpdateKeepsIDAndPosition(t *testing.T) {
	svc, _, rec := newTestService(t,
		Book{ID: 1, Title: "a", Author: "x"},
		Book{ID: 2, Title: "b", Author: "y"},
		Book{ID: 3, Title: "c", Author: "z"},
	)
	ctx := context.Background()

	updated, err := svc.Update(ctx, 2, Input{Title: "B", Author: "Y"})
	require.NoError(t, err)
	assert.Equal(t, Book{ID: 2, Title: "B", Author: "Y"}, updated)

	books, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Book{
		{ID: 1, Title: "a", Author: "x"},
		{ID: 2, Title: "B", Author: "Y"},
		{ID: 3, Title: "c", Author: "z"},
	}, books)

	require.Len(t, rec.events, 1)
	assert.Equal(t, event.BookUpdated, rec.events[0].Kind)
	assert.Equal(t, updated, *rec.events[0].Book)
}

func TestService_DeleteRemovesExactlyOne(t *testing.T) {
	svc, _, rec := newTestService(t,
		Book{ID: 1, Title: "a", Author: "x"},
		Book{ID: 2, Title: "b", Author: "y"},
		Book{ID: 3, Title: "c", Author: "z"},
	)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 2))

	books, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 2)
	for _, b := range books {
		assert.NotEqual(t, 2, b.ID)
	}

	require.Len(t, rec.events, 1)
	assert.Equal(t, event.BookDeleted, rec.events[0].Kind)
	assert.Equal(t, 2, rec.events[0].ID)
	assert.Nil(t, rec.events[0].Book)
}

func TestService_DeleteRemovesDuplicateIDs(t *testing.T) {
	svc, _, _ := newTestService(t,
		Book{ID: 4, Title: "a", Author: "x"},
		Book{ID: 5, Title: "b", Author: "y"},
		Book{ID: 4, Title: "c", Author: "z"},
	)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 4))

	books, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Book{{ID: 5, Title: "b", Author: "y"}}, books)
}

func TestService_ListEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	books, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestService_StoreFailures(t *testing.T) {
	loadErr := errors.New("disk on fire")
	saveErr := errors.New("disk full")
	existing := []Book{{ID: 1, Title: "Dune", Author: "Herbert"}}
	in := Input{Title: "t", Author: "a"}

	tests := []struct {
		name    string
		setup   func(s *mocks.MockStore)
		call    func(svc *Service) error
		wantErr error
	}{
		{
			name:    "list load",
			setup:   func(s *mocks.MockStore) { s.EXPECT().Load(gomock.Any()).Return(nil, loadErr) },
			call:    func(svc *Service) error { _, err := svc.List(context.Background()); return err },
			wantErr: loadErr,
		},
		{
			name:    "get load",
			setup:   func(s *mocks.MockStore) { s.EXPECT().Load(gomock.Any()).Return(nil, loadErr) },
			call:    func(svc *Service) error { _, err := svc.Get(context.Background(), 1); return err },
			wantErr: loadErr,
		},
		{
			name: "create save",
			setup: func(s *mocks.MockStore) {
				s.EXPECT().Load(gomock.Any()).Return(append([]Book{}, existing...), nil)
				s.EXPECT().Save(gomock.Any(), gomock.Len(2)).Return(saveErr)
			},
			call:    func(svc *Service) error { _, err := svc.Create(context.Background(), in); return err },
			wantErr: saveErr,
		},
		{
			name: "update save",
			setup: func(s *mocks.MockStore) {
				s.EXPECT().Load(gomock.Any()).Return(append([]Book{}, existing...), nil)
				s.EXPECT().Save(gomock.Any(), gomock.Len(1)).Return(saveErr)
			},
			call:    func(svc *Service) error { _, err := svc.Update(context.Background(), 1, in); return err },
			wantErr: saveErr,
		},
		{
			name: "delete save",
			setup: func(s *mocks.MockStore) {
				s.EXPECT().Load(gomock.Any()).Return(append([]Book{}, existing...), nil)
				s.EXPECT().Save(gomock.Any(), gomock.Len(0)).Return(saveErr)
			},
			call:    func(svc *Service) error { return svc.Delete(context.Background(), 1) },
			wantErr: saveErr,
		},
		{
			name:    "create load",
			setup:   func(s *mocks.MockStore) { s.EXPECT().Load(gomock.Any()).Return(nil, loadErr) },
			call:    func(svc *Service) error { _, err := svc.Create(context.Background(), in); return err },
			wantErr: loadErr,
		},
		{
			name:    "update load",
			setup:   func(s *mocks.MockStore) { s.EXPECT().Load(gomock.Any()).Return(nil, loadErr) },
			call:    func(svc *Service) error { _, err := svc.Update(context.Background(), 1, in); return err },
			wantErr: loadErr,
		},
		{
			name:    "delete load",
			setup:   func(s *mocks.MockStore) { s.EXPECT().Load(gomock.Any()).Return(nil, loadErr) },
			call:    func(svc *Service) error { return svc.Delete(context.Background(), 1) },
			wantErr: loadErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockStore := mocks.NewMockStore(ctrl)
			// No Publish expectation: a failed operation must not emit an event.
			mockEvents := mocks.NewMockPublisher(ctrl)
			tt.setup(mockStore)

			err := tt.call(NewService(mockStore, mockEvents))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestService_PublishesAfterSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := mocks.NewMockStore(ctrl)
	mockEvents := mocks.NewMockPublisher(ctrl)

	gomock.InOrder(
		mockStore.EXPECT().Load(gomock.Any()).Return([]Book{}, nil),
		mockStore.EXPECT().Save(gomock.Any(), []Book{{ID: 1, Title: "Dune", Author: "Herbert"}}).Return(nil),
		mockEvents.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, e event.Event) int {
			assert.Equal(t, event.BookAdded, e.Kind)
			assert.Equal(t, 1, e.ID)
			return 0
		}),
	)

	_, err := NewService(mockStore, mockEvents).Create(context.Background(), Input{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
}

func TestService_FailingListenerDoesNotFailCreate(t *testing.T) {
	st := store.NewMemoryStore()
	bus := event.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	bus.Subscribe(event.BookAdded, func(ctx context.Context, e event.Event) error {
		panic("listener exploded")
	})
	svc := NewService(st, bus)

	b, err := svc.Create(context.Background(), Input{Title: "Dune", Author: "Herbert"})

	require.NoError(t, err)
	assert.Equal(t, 1, b.ID)
}

func TestService_NilPublisher(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)

	_, err := svc.Create(context.Background(), Input{Title: "Dune", Author: "Herbert"})
	assert.NoError(t, err)
}

// Writers are serialized, so concurrent creates neither collide on ids nor
// drop each other's books.
func TestService_ConcurrentCreatesAreNotLost(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	ids := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := svc.Create(ctx, Input{Title: fmt.Sprintf("t%d", i), Author: "a"})
			if assert.NoError(t, err) {
				ids <- b.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	books, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, n)
	assert.Len(t, rec.events, n)
}
