package service

import (
	"context"
	"testing"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type groupTestDeps struct {
	svc         *GroupServiceImpl
	groupRepo   *mocks.MockGroupRepository
	expenseRepo *mocks.MockExpenseRepository
	users       *mocks.MockUserDirectory
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupGroupService(t *testing.T) *groupTestDeps {
	ctrl := gomock.NewController(t)
	d := &groupTestDeps{
		groupRepo:   mocks.NewMockGroupRepository(ctrl),
		expenseRepo: mocks.NewMockExpenseRepository(ctrl),
		users:       mocks.NewMockUserDirectory(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewGroupService(d.groupRepo, d.expenseRepo, d.users, d.transactor, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func TestGroupService_Create_ActorAlwaysMember(t *testing.T) {
	d := setupGroupService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	actor := uuid.New()
	friend := uuid.New()

	d.users.EXPECT().FindByID(ctx, actor).Return(&domain.User{ID: actor}, nil)
	d.users.EXPECT().FindByID(ctx, friend).Return(&domain.User{ID: friend}, nil)
	d.groupRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	grp, err := d.svc.Create(ctx, ports.CreateGroupRequest{
		ActorID: actor,
		Name:    "Flatmates",
		Members: []uuid.UUID{friend},
	})
	require.NoError(t, err)
	assert.Equal(t, actor, grp.CreatedBy)
	assert.True(t, grp.HasMember(actor))
	assert.True(t, grp.HasMember(friend))
}

func TestGroupService_Create_ProvisionsInvitedMembers(t *testing.T) {
	d := setupGroupService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	actor := uuid.New()
	invitedID := uuid.New()

	d.users.EXPECT().FindByID(ctx, actor).Return(&domain.User{ID: actor}, nil)
	d.users.EXPECT().
		ProvisionInvitedUser(ctx, "Sam", "9876543210").
		Return(&domain.User{ID: invitedID}, nil)
	d.groupRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	grp, err := d.svc.Create(ctx, ports.CreateGroupRequest{
		ActorID:      actor,
		Name:         "Trip",
		InvitedUsers: []ports.InvitedUser{{Name: "Sam", Mobile: "9876543210"}},
	})
	require.NoError(t, err)
	assert.True(t, grp.HasMember(invitedID))
}

func TestGroupService_Create_EmptyName(t *testing.T) {
	d := setupGroupService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Create(context.Background(), ports.CreateGroupRequest{
		ActorID: uuid.New(),
		Name:    "   ",
	})
	appErr := requireAppError(t, err)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestGroupService_Update_CreatorOnly(t *testing.T) {
	ctx := context.Background()
	creator := uuid.New()
	member := uuid.New()
	groupID := uuid.New()

	grp := &domain.Group{
		ID:        groupID,
		Name:      "Old",
		CreatedBy: creator,
		Members:   []uuid.UUID{creator, member},
	}

	t.Run("member cannot rename", func(t *testing.T) {
		d := setupGroupService(t)
		defer d.ctrl.Finish()
		d.groupRepo.EXPECT().GetByID(ctx, groupID).Return(grp, nil)

		newName := "Renamed"
		_, err := d.svc.Update(ctx, groupID, ports.UpdateGroupRequest{
			ActorID: member,
			Name:    &newName,
		})
		appErr := requireAppError(t, err)
		assert.Equal(t, "FBD_005", appErr.Code)
	})

	t.Run("member cannot add members", func(t *testing.T) {
		d := setupGroupService(t)
		defer d.ctrl.Finish()
		d.groupRepo.EXPECT().GetByID(ctx, groupID).Return(grp, nil)

		_, err := d.svc.Update(ctx, groupID, ports.UpdateGroupRequest{
			ActorID:    member,
			AddMembers: []uuid.UUID{uuid.New()},
		})
		appErr := requireAppError(t, err)
		assert.Equal(t, "FBD_005", appErr.Code)
	})
}

func TestGroupService_Update_AddMembersKeepsExisting(t *testing.T) {
	d := setupGroupService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	creator := uuid.New()
	existing := uuid.New()
	newcomer := uuid.New()
	groupID := uuid.New()

	d.groupRepo.EXPECT().GetByID(ctx, groupID).Return(&domain.Group{
		ID:        groupID,
		Name:      "Trip",
		CreatedBy: creator,
		Members:   []uuid.UUID{creator, existing},
	}, nil)
	d.users.EXPECT().FindByID(ctx, newcomer).Return(&domain.User{ID: newcomer}, nil)
	d.groupRepo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	grp, err := d.svc.Update(ctx, groupID, ports.UpdateGroupRequest{
		ActorID:    creator,
		AddMembers: []uuid.UUID{newcomer},
	})
	require.NoError(t, err)
	assert.Len(t, grp.Members, 3)
	assert.True(t, grp.HasMember(creator))
	assert.True(t, grp.HasMember(newcomer))
}

func TestGroupService_Delete_CascadesInOneTransaction(t *testing.T) {
	d := setupGroupService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	creator := uuid.New()
	groupID := uuid.New()
	tx := &mockTx{}

	d.groupRepo.EXPECT().GetByID(ctx, groupID).Return(&domain.Group{
		ID:        groupID,
		CreatedBy: creator,
		Members:   []uuid.UUID{creator},
	}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.expenseRepo.EXPECT().DeleteByGroup(ctx, tx, groupID).Return(int64(7), nil)
	d.groupRepo.EXPECT().Delete(ctx, tx, groupID).Return(nil)

	res, err := d.svc.Delete(ctx, groupID, creator)
	require.NoError(t, err)
	assert.Equal(t, groupID, res.DeletedGroupID)
	assert.Equal(t, int64(7), res.DeletedExpensesCount)
}

func TestGroupService_Delete_CreatorOnly(t *testing.T) {
	d := setupGroupService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	creator := uuid.New()
	member := uuid.New()
	groupID := uuid.New()

	d.groupRepo.EXPECT().GetByID(ctx, groupID).Return(&domain.Group{
		ID:        groupID,
		CreatedBy: creator,
		Members:   []uuid.UUID{creator, member},
	}, nil)

	_, err := d.svc.Delete(ctx, groupID, member)
	appErr := requireAppError(t, err)
	assert.Equal(t, "FBD_005", appErr.Code)
}
