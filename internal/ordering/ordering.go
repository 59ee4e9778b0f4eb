// Package ordering maintains the dense-position invariant for sibling
// collections: the positions of all rows sharing a parent always form the
// gapless sequence 0..n-1. Every operation here expects to run inside the
// caller's transaction so that no intermediate arrangement is observable.
package ordering

import (
	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"gorm.io/gorm"
)

// Collection identifies one sibling collection: rows of Table grouped by the
// Parent foreign key column and ordered by their position column.
type Collection struct {
	Table  string
	Parent string
}

var (
	Boards   = Collection{Table: "boards", Parent: "project_id"}
	Columns  = Collection{Table: "columns", Parent: "board_id"}
	Tasks    = Collection{Table: "tasks", Parent: "column_id"}
	Subtasks = Collection{Table: "subtasks", Parent: "task_id"}
)

func (c Collection) siblings(tx *gorm.DB, parentID uuid.UUID) *gorm.DB {
	return tx.Table(c.Table).Where(c.Parent+" = ?", parentID)
}

// Count returns the number of siblings under parentID.
func Count(tx *gorm.DB, c Collection, parentID uuid.UUID) (int, error) {
	var n int64
	if err := c.siblings(tx, parentID).Count(&n).Error; err != nil {
		return 0, apperrors.Storage(err)
	}
	return int(n), nil
}

// ResolveInsertPosition determines where a new sibling lands and, for an
// explicit position, shifts later siblings right to keep density. A nil
// request appends at count; requests past the end are clamped to an append.
func ResolveInsertPosition(tx *gorm.DB, c Collection, parentID uuid.UUID, requested *int) (int, error) {
	count, err := Count(tx, c, parentID)
	if err != nil {
		return 0, err
	}

	if requested == nil {
		return count, nil
	}
	if *requested < 0 {
		return 0, apperrors.Validationf("position must not be negative, got %d", *requested)
	}
	if *requested >= count {
		return count, nil
	}

	if err := openSlot(tx, c, parentID, *requested); err != nil {
		return 0, err
	}
	return *requested, nil
}

// openSlot shifts every sibling at or after pos one place right.
func openSlot(tx *gorm.DB, c Collection, parentID uuid.UUID, pos int) error {
	err := c.siblings(tx, parentID).
		Where("position >= ?", pos).
		UpdateColumn("position", gorm.Expr("position + 1")).Error
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// Compact closes the gap left at removedPos after a sibling was deleted.
// It must run in the same transaction as the delete.
func Compact(tx *gorm.DB, c Collection, parentID uuid.UUID, removedPos int) error {
	err := c.siblings(tx, parentID).
		Where("position > ?", removedPos).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// Move relocates one item, covering same-parent reordering and cross-parent
// moves. The caller supplies the item's current parent and position; the
// item's own row is updated here along with every displaced sibling.
func Move(tx *gorm.DB, c Collection, itemID uuid.UUID, currentParent uuid.UUID, currentPos int, targetParent uuid.UUID, targetPos int) error {
	if targetPos < 0 {
		return apperrors.Validationf("position must not be negative, got %d", targetPos)
	}

	if currentParent == targetParent {
		return moveWithin(tx, c, itemID, currentParent, currentPos, targetPos)
	}
	return moveAcross(tx, c, itemID, currentParent, currentPos, targetParent, targetPos)
}

func moveWithin(tx *gorm.DB, c Collection, itemID uuid.UUID, parentID uuid.UUID, currentPos, targetPos int) error {
	count, err := Count(tx, c, parentID)
	if err != nil {
		return err
	}
	if targetPos > count-1 {
		targetPos = count - 1
	}
	if targetPos == currentPos {
		return nil
	}

	if targetPos > currentPos {
		// Everything in (current, target] slides one place down.
		err = c.siblings(tx, parentID).
			Where("position > ? AND position <= ?", currentPos, targetPos).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	} else {
		// Everything in [target, current) slides one place up.
		err = c.siblings(tx, parentID).
			Where("position >= ? AND position < ?", targetPos, currentPos).
			UpdateColumn("position", gorm.Expr("position + 1")).Error
	}
	if err != nil {
		return apperrors.Storage(err)
	}

	err = tx.Table(c.Table).Where("id = ?", itemID).
		UpdateColumn("position", targetPos).Error
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func moveAcross(tx *gorm.DB, c Collection, itemID uuid.UUID, srcParent uuid.UUID, srcPos int, dstParent uuid.UUID, dstPos int) error {
	dstCount, err := Count(tx, c, dstParent)
	if err != nil {
		return err
	}
	if dstPos > dstCount {
		dstPos = dstCount
	}

	// Close the gap left behind in the source parent.
	err = c.siblings(tx, srcParent).
		Where("position > ?", srcPos).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return apperrors.Storage(err)
	}

	// Open a slot in the target parent.
	err = c.siblings(tx, dstParent).
		Where("position >= ?", dstPos).
		UpdateColumn("position", gorm.Expr("position + 1")).Error
	if err != nil {
		return apperrors.Storage(err)
	}

	err = tx.Table(c.Table).Where("id = ?", itemID).
		UpdateColumns(map[string]interface{}{
			c.Parent:   dstParent,
			"position": dstPos,
		}).Error
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// Reorder assigns each id's position to its index in orderedIDs. The list
// must be an exact permutation of the collection's current members.
func Reorder(tx *gorm.DB, c Collection, parentID uuid.UUID, orderedIDs []uuid.UUID) error {
	current, err := memberIDs(tx, c, parentID)
	if err != nil {
		return err
	}

	if len(orderedIDs) != len(current) {
		return apperrors.Validationf("expected %d ids, got %d", len(current), len(orderedIDs))
	}

	members := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		members[id] = struct{}{}
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := members[id]; !ok {
			return apperrors.Validationf("id %s is not a member of the collection", id)
		}
		if _, dup := seen[id]; dup {
			return apperrors.Validationf("id %s appears more than once", id)
		}
		seen[id] = struct{}{}
	}

	for index, id := range orderedIDs {
		err := tx.Table(c.Table).Where("id = ?", id).
			UpdateColumn("position", index).Error
		if err != nil {
			return apperrors.Storage(err)
		}
	}
	return nil
}

func memberIDs(tx *gorm.DB, c Collection, parentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := c.siblings(tx, parentID).Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return ids, nil
}

// PositionsByID reads back the current (id, position) mapping of a
// collection, ordered by position. Used by invariant checks and tests.
func PositionsByID(tx *gorm.DB, c Collection, parentID uuid.UUID) (map[uuid.UUID]int, error) {
	type row struct {
		ID       uuid.UUID
		Position int
	}
	var rows []row
	err := c.siblings(tx, parentID).
		Select("id", "position").
		Order("position ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	positions := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		positions[r.ID] = r.Position
	}
	return positions, nil
}
