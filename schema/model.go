package schema

// Column describes one column of a table: the raw MySQL type string,
// nullability, an optional default and the free-text Extra modifier
// (e.g. "auto_increment"). Extra is opaque except to primary-key
// inference during table creation.
type Column struct {
	Type     string
	Nullable bool
	Default  *string
	Extra    string
}

// Table maps column name to its definition. Column names are unique.
type Table map[string]Column

// Schema maps table name to its column set. It represents either the
// live database structure or a declared target structure; the two are
// interchangeable. Snapshots are ephemeral: build a fresh one per
// operation, never cache across calls.
type Schema map[string]Table

// Equal reports structural equality. A nil Default and an
// empty-string Default are different values.
func (c Column) Equal(other Column) bool {
	if c.Type != other.Type || c.Nullable != other.Nullable || c.Extra != other.Extra {
		return false
	}
	if (c.Default == nil) != (other.Default == nil) {
		return false
	}
	if c.Default != nil && *c.Default != *other.Default {
		return false
	}
	return true
}

// Equal reports whether both tables declare the same columns with
// structurally equal definitions.
func (t Table) Equal(other Table) bool {
	if len(t) != len(other) {
		return false
	}
	for name, col := range t {
		otherCol, ok := other[name]
		if !ok || !col.Equal(otherCol) {
			return false
		}
	}
	return true
}

// Equal reports whether both schemas declare the same tables with
// equal column sets.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for name, table := range s {
		otherTable, ok := other[name]
		if !ok || !table.Equal(otherTable) {
			return false
		}
	}
	return true
}
