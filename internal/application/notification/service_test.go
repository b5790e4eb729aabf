package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/go-notification-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) Insert(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockStore) Get(ctx context.Context, id int64) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}
func (m *mockStore) ListAll(ctx context.Context) ([]domain.Notification, error) {
	args := m.Called(ctx)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}
func (m *mockStore) ListByCorrelatedEntity(ctx context.Context, typeID, entityID int64) ([]domain.Notification, error) {
	args := m.Called(ctx, typeID, entityID)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}
func (m *mockStore) UpdateState(ctx context.Context, id, stateID int64) error {
	return m.Called(ctx, id, stateID).Error(0)
}
func (m *mockStore) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

type mockTypeStore struct{ mock.Mock }

func (m *mockTypeStore) Get(ctx context.Context, typeID int64) (*domain.NotificationType, error) {
	args := m.Called(ctx, typeID)
	if t, _ := args.Get(0).(*domain.NotificationType); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTypeStore) GetByName(ctx context.Context, name string) (*domain.NotificationType, error) {
	args := m.Called(ctx, name)
	if t, _ := args.Get(0).(*domain.NotificationType); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTypeStore) List(ctx context.Context) ([]domain.NotificationType, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]domain.NotificationType)
	return ts, args.Error(1)
}

// --- helpers ---

var fixedNow = time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)

func bogota(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(domain.DefaultTimezone)
	require.NoError(t, err)
	return loc
}

func newSvc(t *testing.T, repo *mockStore, types *mockTypeStore) Service {
	return NewService(repo, types, Options{Location: bogota(t), Now: func() time.Time { return fixedNow }})
}

func invitationType() *domain.NotificationType {
	return &domain.NotificationType{TypeID: 1, Name: domain.TypeInvitation}
}

func strPtr(s string) *string { return &s }

func stored(id int64, stateID int64) *domain.Notification {
	return &domain.Notification{
		NotificationID:     id,
		Message:            strPtr("You have a new invitation"),
		CreatedAt:          fixedNow,
		CorrelatedEntityID: 123,
		TypeID:             1,
		StateID:            stateID,
		UserID:             7,
	}
}

// --- Create ---

func TestCreate_PersistsAndResolvesNames(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Notification")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Notification).NotificationID = 42 }).
		Return(nil)
	types.On("Get", mock.Anything, int64(1)).Return(invitationType(), nil)

	n, err := newSvc(t, repo, types).Create(context.Background(), domain.NewNotification{
		Message: strPtr("hello"), UserID: 7, TypeID: 1, CorrelatedEntityID: 123, StateID: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), n.NotificationID)
	assert.Equal(t, domain.TypeInvitation, n.TypeName)
	assert.Equal(t, "Pending", n.StateName)
	assert.Equal(t, domain.DefaultTimezone, n.CreatedAt.Location().String())
	assert.True(t, n.CreatedAt.Equal(fixedNow))
}

func TestCreate_InvalidInput_NeverWrites(t *testing.T) {
	cases := map[string]domain.NewNotification{
		"zero user":     {UserID: 0, TypeID: 1, CorrelatedEntityID: 1, StateID: 1},
		"neg entity":    {UserID: 1, TypeID: 1, CorrelatedEntityID: -1, StateID: 1},
		"zero type":     {UserID: 1, TypeID: 0, CorrelatedEntityID: 1, StateID: 1},
		"neg state":     {UserID: 1, TypeID: 1, CorrelatedEntityID: 1, StateID: -2},
		"blank message": {Message: strPtr("   "), UserID: 1, TypeID: 1, CorrelatedEntityID: 1, StateID: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			repo, types := &mockStore{}, &mockTypeStore{}

			_, err := newSvc(t, repo, types).Create(context.Background(), in)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_StoreFailureIsReturned(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := newSvc(t, repo, types).Create(context.Background(), domain.NewNotification{
		UserID: 7, TypeID: 1, CorrelatedEntityID: 123, StateID: 1,
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrValidation))
}

// --- UpdateState ---

func TestUpdateState_IdempotentRetry(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	current := stored(5, 1)
	repo.On("Get", mock.Anything, int64(5)).Return(current, nil)
	repo.On("UpdateState", mock.Anything, int64(5), int64(5)).
		Run(func(mock.Arguments) { current.StateID = 5 }).
		Return(nil)
	types.On("Get", mock.Anything, int64(1)).Return(invitationType(), nil)
	svc := newSvc(t, repo, types)

	for range 2 {
		n, err := svc.UpdateState(context.Background(), 5, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n.StateID)
		assert.Equal(t, "Accepted", n.StateName)
	}
	repo.AssertNumberOfCalls(t, "UpdateState", 2)
}

func TestUpdateState_NotFound_NoWrite(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	repo.On("Get", mock.Anything, int64(99)).Return(nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound))

	_, err := newSvc(t, repo, types).UpdateState(context.Background(), 99, 2)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateState_NonPositiveState_IsValidationError(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}

	_, err := newSvc(t, repo, types).UpdateState(context.Background(), 5, 0)

	assert.True(t, errors.Is(err, domain.ErrValidation))
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestUpdateState_PolicyRefusal(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	repo.On("Get", mock.Anything, int64(5)).Return(stored(5, int64(domain.StateRejected)), nil)
	svc := NewService(repo, types, Options{Policy: domain.TransitionTable{
		domain.StatePending: {domain.StateAccepted, domain.StateRejected},
	}})

	_, err := svc.UpdateState(context.Background(), 5, int64(domain.StatePending))

	assert.True(t, errors.Is(err, domain.ErrValidation))
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
}

// --- ListByUser ---

func TestListByUser_Empty(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	repo.On("ListByUser", mock.Anything, int64(7)).Return([]domain.Notification(nil), nil)

	views, err := newSvc(t, repo, types).ListByUser(context.Background(), 7)

	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestListByUser_ResolvesNamesOncePerType(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	repo.On("ListByUser", mock.Anything, int64(7)).Return([]domain.Notification{*stored(1, 1), *stored(2, 6)}, nil)
	types.On("Get", mock.Anything, int64(1)).Return(invitationType(), nil).Once()

	views, err := newSvc(t, repo, types).ListByUser(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, domain.TypeInvitation, *views[0].NotificationType)
	assert.Equal(t, "Pending", *views[0].NotificationState)
	assert.Equal(t, "Rejected", *views[1].NotificationState)
	types.AssertNumberOfCalls(t, "Get", 1)
}

func TestListByUser_SerializationFailureAbortsBatch(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	broken := *stored(2, 1)
	broken.CorrelatedEntityID = 0
	repo.On("ListByUser", mock.Anything, int64(7)).Return([]domain.Notification{*stored(1, 1), broken}, nil)
	types.On("Get", mock.Anything, int64(1)).Return(invitationType(), nil)

	views, err := newSvc(t, repo, types).ListByUser(context.Background(), 7)

	assert.Nil(t, views)
	assert.True(t, errors.Is(err, domain.ErrSerialization))
}

func TestListByUser_UnknownTypeLeavesNameEmpty(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	repo.On("ListByUser", mock.Anything, int64(7)).Return([]domain.Notification{*stored(1, 1)}, nil)
	types.On("Get", mock.Anything, int64(1)).Return(nil, domain.ErrNotFound)

	views, err := newSvc(t, repo, types).ListByUser(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].NotificationType)
}

// --- correlated entity ---

func TestGetByCorrelatedEntity_UnknownType_NotFound(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	types.On("GetByName", mock.Anything, "Reminder").Return(nil, fmt.Errorf("type: %w", domain.ErrNotFound))

	_, err := newSvc(t, repo, types).GetByCorrelatedEntity(context.Background(), "Reminder", 1)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "ListByCorrelatedEntity", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetByCorrelatedEntity_ReturnsFirstMatch(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	types.On("GetByName", mock.Anything, domain.TypeInvitation).Return(invitationType(), nil)
	repo.On("ListByCorrelatedEntity", mock.Anything, int64(1), int64(123)).
		Return([]domain.Notification{*stored(3, 1), *stored(4, 1)}, nil)

	n, err := newSvc(t, repo, types).GetByCorrelatedEntity(context.Background(), domain.TypeInvitation, 123)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n.NotificationID)
}

func TestGetByCorrelatedEntity_UnorderedMatches_ReturnsLowestID(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	types.On("GetByName", mock.Anything, domain.TypeInvitation).Return(invitationType(), nil)
	repo.On("ListByCorrelatedEntity", mock.Anything, int64(1), int64(123)).
		Return([]domain.Notification{*stored(9, 1), *stored(4, 1), *stored(7, 1)}, nil)

	n, err := newSvc(t, repo, types).GetByCorrelatedEntity(context.Background(), domain.TypeInvitation, 123)

	require.NoError(t, err)
	assert.Equal(t, int64(4), n.NotificationID)
	assert.Equal(t, domain.TypeInvitation, n.TypeName)
}

func TestDeleteByCorrelatedEntity_NoMatches_NoDelete(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	types.On("GetByName", mock.Anything, domain.TypeInvitation).Return(invitationType(), nil)
	repo.On("ListByCorrelatedEntity", mock.Anything, int64(1), int64(123)).Return([]domain.Notification{}, nil)

	count, err := newSvc(t, repo, types).DeleteByCorrelatedEntity(context.Background(), domain.TypeInvitation, 123)

	require.NoError(t, err)
	assert.Zero(t, count)
	repo.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
}

func TestDeleteByCorrelatedEntity_UnknownType_ZeroSuccess(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	types.On("GetByName", mock.Anything, "Reminder").Return(nil, domain.ErrNotFound)

	count, err := newSvc(t, repo, types).DeleteByCorrelatedEntity(context.Background(), "Reminder", 123)

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteByCorrelatedEntity_DeletesAllMatches(t *testing.T) {
	repo, types := &mockStore{}, &mockTypeStore{}
	types.On("GetByName", mock.Anything, domain.TypeInvitation).Return(invitationType(), nil)
	repo.On("ListByCorrelatedEntity", mock.Anything, int64(1), int64(123)).
		Return([]domain.Notification{*stored(3, 1), *stored(4, 2)}, nil)
	repo.On("DeleteMany", mock.Anything, []int64{3, 4}).Return(2, nil)

	count, err := newSvc(t, repo, types).DeleteByCorrelatedEntity(context.Background(), domain.TypeInvitation, 123)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListStates(t *testing.T) {
	states := newSvc(t, &mockStore{}, &mockTypeStore{}).ListStates(context.Background())
	require.Len(t, states, 6)
	assert.Equal(t, domain.StateInfo{StateID: 1, Name: "Pending"}, states[0])
	assert.Equal(t, domain.StateInfo{StateID: 6, Name: "Rejected"}, states[5])
}
