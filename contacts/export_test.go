package contacts

// SetBeforeCreate lets tests interleave a competing writer between lookup and
// insert.
func SetBeforeCreate(d *Directory, f func()) {
	d.beforeCreate = f
}
