package diff

import (
	"github.com/structsync/structsync/schema"
)

// Plan is the delta between a current and a target structure.
//
// Add holds tables and columns that are absent from the current
// structure and must be created. Edit holds tables and columns that
// exist but diverge: either a drop or a replacement definition. A
// table never appears in both maps for the same purpose — Add is
// strictly creation, Edit strictly alteration or removal of
// pre-existing objects.
type Plan struct {
	Add  schema.Schema
	Edit map[string]TableEdit
}

// TableEdit describes changes to one pre-existing table. DropTable
// set means drop the whole table; Columns is ignored in that case.
type TableEdit struct {
	DropTable bool
	Columns   map[string]ColumnEdit
}

// ColumnEdit is either a column drop or a replacement definition.
// The drop case is an explicit flag, never an empty-value sentinel,
// so "remove this" can never collide with a legitimate definition.
type ColumnEdit struct {
	Drop bool
	Col  schema.Column
}

// Diff compares the current structure against the target and returns
// the plan that converges current toward target. It is a pure
// function of its inputs and does not depend on map iteration order.
//
// Diff is not symmetric. Applying the plan and re-diffing against the
// same target yields an empty plan.
func Diff(current, target schema.Schema) *Plan {
	plan := &Plan{
		Add:  schema.Schema{},
		Edit: map[string]TableEdit{},
	}

	// Pass 1: tables present in current that are gone or divergent.
	for tableName, currentTable := range current {
		targetTable, ok := target[tableName]
		if !ok {
			plan.Edit[tableName] = TableEdit{DropTable: true}
			continue
		}

		edits := map[string]ColumnEdit{}
		for colName, currentCol := range currentTable {
			targetCol, ok := targetTable[colName]
			if !ok {
				edits[colName] = ColumnEdit{Drop: true}
			} else if !currentCol.Equal(targetCol) {
				edits[colName] = ColumnEdit{Col: targetCol}
			}
		}

		// Tables with no column-level edits stay out of the plan.
		if len(edits) > 0 {
			plan.Edit[tableName] = TableEdit{Columns: edits}
		}
	}

	// Pass 2: tables and columns present only in target.
	for tableName, targetTable := range target {
		currentTable, ok := current[tableName]
		if !ok {
			added := schema.Table{}
			for colName, col := range targetTable {
				added[colName] = col
			}
			plan.Add[tableName] = added
			continue
		}

		added := schema.Table{}
		for colName, col := range targetTable {
			if _, ok := currentTable[colName]; !ok {
				added[colName] = col
			}
		}
		if len(added) > 0 {
			plan.Add[tableName] = added
		}
	}

	return plan
}

// Empty reports whether the plan contains no changes.
func (p *Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Edit) == 0
}
