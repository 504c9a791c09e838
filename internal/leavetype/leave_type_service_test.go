package leavetype_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"dayflow/internal/leavetype"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveTypeRepository struct {
	findAllFn  func(ctx context.Context) ([]leavetype.LeaveType, error)
	findByIDFn func(ctx context.Context, id string) (*leavetype.LeaveType, error)
}

func (f *fakeLeaveTypeRepository) FindAll(ctx context.Context) ([]leavetype.LeaveType, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeLeaveTypeRepository) FindByID(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func TestLeaveTypeService_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := &fakeLeaveTypeRepository{
			findAllFn: func(ctx context.Context) ([]leavetype.LeaveType, error) {
				return []leavetype.LeaveType{
					{
						ID:                      uuid.New(),
						Code:                    "ANNUAL",
						Name:                    "Annual Leave",
						DefaultAnnualAllocation: 12,
					},
					{
						ID:               uuid.New(),
						Code:             "SICK",
						Name:             "Sick Leave",
						RequiresDocument: true,
					},
				}, nil
			},
		}
		svc := leavetype.NewService(repo, nil)

		resp, err := svc.GetAll(ctx)

		assert.NoError(t, err)
		assert.Len(t, resp, 2)
		assert.Equal(t, "ANNUAL", resp[0].Code)
		assert.Equal(t, 12, resp[0].DefaultAnnualAllocation)
		assert.True(t, resp[1].RequiresDocument)
	})

	t.Run("concurrent callers share one query", func(t *testing.T) {
		var calls int32
		repo := &fakeLeaveTypeRepository{
			findAllFn: func(ctx context.Context) ([]leavetype.LeaveType, error) {
				atomic.AddInt32(&calls, 1)
				return []leavetype.LeaveType{{ID: uuid.New(), Code: "ANNUAL", Name: "Annual Leave"}}, nil
			},
		}
		svc := leavetype.NewService(repo, nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := svc.GetAll(ctx)
				assert.NoError(t, err)
				assert.Len(t, resp, 1)
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(10))
		assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
	})

	t.Run("negative repo error", func(t *testing.T) {
		repo := &fakeLeaveTypeRepository{
			findAllFn: func(ctx context.Context) ([]leavetype.LeaveType, error) {
				return nil, errors.New("db error")
			},
		}
		svc := leavetype.NewService(repo, nil)

		resp, err := svc.GetAll(ctx)

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestLeaveTypeService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		id := uuid.New()
		repo := &fakeLeaveTypeRepository{
			findByIDFn: func(ctx context.Context, targetID string) (*leavetype.LeaveType, error) {
				assert.Equal(t, id.String(), targetID)
				return &leavetype.LeaveType{ID: id, Code: "UNPAID", Name: "Unpaid Leave"}, nil
			},
		}
		svc := leavetype.NewService(repo, nil)

		resp, err := svc.GetByID(ctx, id.String())

		assert.NoError(t, err)
		assert.Equal(t, id.String(), resp.ID)
		assert.Equal(t, "UNPAID", resp.Code)
	})

	t.Run("negative not found", func(t *testing.T) {
		repo := &fakeLeaveTypeRepository{}
		svc := leavetype.NewService(repo, nil)

		_, err := svc.GetByID(ctx, uuid.New().String())

		assert.ErrorIs(t, err, leavetype.ErrLeaveTypeNotFound)
	})
}
