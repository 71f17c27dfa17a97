package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"
	"splitledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GroupServiceImpl implements ports.GroupService.
type GroupServiceImpl struct {
	groupRepo   ports.GroupRepository
	expenseRepo ports.ExpenseRepository
	users       ports.UserDirectory
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewGroupService creates a new GroupServiceImpl.
func NewGroupService(
	groupRepo ports.GroupRepository,
	expenseRepo ports.ExpenseRepository,
	users ports.UserDirectory,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *GroupServiceImpl {
	return &GroupServiceImpl{
		groupRepo:   groupRepo,
		expenseRepo: expenseRepo,
		users:       users,
		transactor:  transactor,
		log:         log,
	}
}

// GetGroup returns a group by ID, or (nil, nil) when absent.
func (s *GroupServiceImpl) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	grp, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get group: %w", err))
	}
	return grp, nil
}

// List returns every group the user created or belongs to.
func (s *GroupServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	groups, err := s.groupRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list groups: %w", err))
	}
	return groups, nil
}

// Create creates a group. The actor always ends up a member.
func (s *GroupServiceImpl) Create(ctx context.Context, req ports.CreateGroupRequest) (*domain.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("group name is required")
	}

	members, err := s.resolveMembers(ctx, append([]uuid.UUID{req.ActorID}, req.Members...), req.InvitedUsers)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	grp := &domain.Group{
		ID:        uuid.New(),
		Name:      name,
		CreatedBy: req.ActorID,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.groupRepo.Create(ctx, grp); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create group: %w", err))
	}

	s.log.Info().
		Str("group_id", grp.ID.String()).
		Str("created_by", grp.CreatedBy.String()).
		Int("members", len(grp.Members)).
		Msg("group created")

	return grp, nil
}

// Update renames a group and/or adds members. Members are only ever added,
// and every kind of update is reserved to the creator.
func (s *GroupServiceImpl) Update(ctx context.Context, id uuid.UUID, req ports.UpdateGroupRequest) (*domain.Group, error) {
	grp, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get group: %w", err))
	}
	if grp == nil {
		return nil, apperror.ErrNotFound("group")
	}
	if grp.CreatedBy != req.ActorID {
		return nil, apperror.ErrNotGroupCreator("update")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("group name is required")
		}
		grp.Name = name
	}

	if len(req.AddMembers) > 0 || len(req.InvitedUsers) > 0 {
		added, err := s.resolveMembers(ctx, req.AddMembers, req.InvitedUsers)
		if err != nil {
			return nil, err
		}
		for _, id := range added {
			if !grp.HasMember(id) {
				grp.Members = append(grp.Members, id)
			}
		}
	}

	grp.UpdatedAt = time.Now().UTC()
	if err := s.groupRepo.Update(ctx, grp); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update group: %w", err))
	}

	s.log.Info().Str("group_id", grp.ID.String()).Msg("group updated")
	return grp, nil
}

// Delete removes a group and all of its expenses in one transaction. Only
// the creator may delete.
func (s *GroupServiceImpl) Delete(ctx context.Context, id, actorID uuid.UUID) (*ports.DeleteGroupResult, error) {
	grp, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get group: %w", err))
	}
	if grp == nil {
		return nil, apperror.ErrNotFound("group")
	}
	if grp.CreatedBy != actorID {
		return nil, apperror.ErrNotGroupCreator("delete")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	deleted, err := s.expenseRepo.DeleteByGroup(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("delete group expenses: %w", err))
	}

	if err := s.groupRepo.Delete(ctx, dbTx, id); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("delete group: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("group_id", id.String()).
		Int64("deleted_expenses", deleted).
		Msg("group deleted with expense cascade")

	return &ports.DeleteGroupResult{
		DeletedGroupID:       id,
		DeletedExpensesCount: deleted,
	}, nil
}

// resolveMembers verifies listed member IDs exist and provisions invited
// users, returning the combined deduplicated set.
func (s *GroupServiceImpl) resolveMembers(ctx context.Context, memberIDs []uuid.UUID, invited []ports.InvitedUser) ([]uuid.UUID, error) {
	members := make([]uuid.UUID, 0, len(memberIDs)+len(invited))

	for _, id := range memberIDs {
		if containsID(members, id) {
			continue
		}
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, apperror.ErrUserNotFound(id.String())
		}
		members = append(members, id)
	}

	for _, inv := range invited {
		u, err := s.users.ProvisionInvitedUser(ctx, inv.Name, inv.Mobile)
		if err != nil {
			return nil, err
		}
		if !containsID(members, u.ID) {
			members = append(members, u.ID)
		}
	}

	return members, nil
}
