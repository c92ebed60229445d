package builder

// Col returns the database column name for a given Go field name of T.
// Unknown models or fields are returned as-is.
//
//	Where(builder.Eq(builder.Col[catalog.User](db, "Email"), value))
func Col[T any](d *DB, goFieldName string) string {
	table, err := tableFor[T](d)
	if err != nil {
		return goFieldName
	}

	column := table.GetColumnByField(goFieldName)
	if column == nil {
		return goFieldName
	}

	return column.Name
}
